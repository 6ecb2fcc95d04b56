package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyDest       = "dest"
	KeyCategory   = "category"
	KeyKind       = "kind"
	KeyCount      = "count"
	KeySplit      = "split"
	KeyPartition  = "partition"
	KeyDurationMS = "duration_ms"
	KeyOp         = "op"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Dest(p string) slog.Attr { return slog.String(KeyDest, p) }
func Category(c string) slog.Attr { return slog.String(KeyCategory, c) }
func Kind(k string) slog.Attr { return slog.String(KeyKind, k) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Split(n int) slog.Attr { return slog.Int(KeySplit, n) }
func Partition(n int) slog.Attr { return slog.Int(KeyPartition, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Op(op string) slog.Attr { return slog.String(KeyOp, op) }
func Addr(a string) slog.Attr { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
