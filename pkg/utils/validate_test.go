package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ada@example.com", true},
		{"Ada.Lovelace+talks@example.co.uk", true},
		{"", false},
		{"not an email", false},
		{"ada@", false},
		{"Ada <ada@example.com>", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmail(tt.in))
		})
	}
}
