package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"305-555-0100", "+13055550100"},
		{"(305) 555-0100", "+13055550100"},
		{"305.555.0100", "+13055550100"},
		{"1 305 555 0100", "+13055550100"},
		{"+13055550100", "+13055550100"},
		{" +1 (305) 555-0100 ", "+13055550100"},
		{"+44 20 7946 0958", "+442079460958"},
		{"0044 20 7946 0958", "+442079460958"},
		{"+9991234567", "+9991234567"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePhoneNumber(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizePhoneNumberRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "555-0100", "+0123456789", "12345678901234567", "+1"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizePhoneNumber(in)
			assert.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}

func TestIsTestPhoneNumber(t *testing.T) {
	assert.True(t, IsTestPhoneNumber("+9991234567"))
	assert.False(t, IsTestPhoneNumber("+13055550100"))
}
