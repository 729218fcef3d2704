package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.True(t, Valid(a))
	assert.NotEqual(t, a, b)
}

func TestValidAndNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7B1F3C9E-2D4A-4E1B-9C51-000000000001", "7b1f3c9e-2d4a-4e1b-9c51-000000000001"},
		{"7b1f3c9e-2d4a-4e1b-9c51-000000000001", "7b1f3c9e-2d4a-4e1b-9c51-000000000001"},
		{"00000000-0000-0000-0000-000000000000", ""},
		{"care-manager", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
			assert.Equal(t, tt.want != "", Valid(tt.in))
		})
	}
}
