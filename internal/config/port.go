package config

import (
	"math"
	"strconv"
	"strings"
)

const (
	minPort = 1
	maxPort = 65535
)

// CheckPortNumber validates a port given as a number or a numeric string.
// It returns false for missing, non-numeric or out-of-range input.
func CheckPortNumber(v any) (int, bool) {
	var n int64
	switch p := v.(type) {
	case int:
		n = int64(p)
	case int32:
		n = int64(p)
	case int64:
		n = p
	case uint16:
		n = int64(p)
	case float64:
		if p != math.Trunc(p) || p > math.MaxInt32 || p < math.MinInt32 {
			return 0, false
		}
		n = int64(p)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n < minPort || n > maxPort {
		return 0, false
	}
	return int(n), true
}
