package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ford", "ford"},
		{"ŠKODA", "škoda"},
		{"K", "k"},
		{"İ", "i̇"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LowerText(tt.in), "%q", tt.in)
	}
}
