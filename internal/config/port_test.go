package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPortNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
		ok    bool
	}{
		{"non-numeric string", "sfsd", 0, false},
		{"negative", -1231, 0, false},
		{"zero", 0, 0, false},
		{"above range", 65536, 0, false},
		{"far above range", 999999999, 0, false},
		{"missing", nil, 0, false},
		{"empty string", "", 0, false},
		{"fractional", 80.5, 0, false},
		{"numeric string", "8000", 8000, true},
		{"padded string", " 8080 ", 8080, true},
		{"int", 9000, 9000, true},
		{"lowest", 1, 1, true},
		{"highest", "65535", 65535, true},
		{"whole float", float64(3000), 3000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CheckPortNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
