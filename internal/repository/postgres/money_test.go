package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.00", 0},
		{"1.00", 100},
		{"100.50", 10050},
		{"0.01", 1},
		{"99999.99", 9999999},
		{"-25.75", -2575},
		{" 10.00 ", 1000},
		{"3.335", 334},
	}
	for _, tt := range tests {
		got, err := numericStringToCents(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNumericStringToCents_Invalid(t *testing.T) {
	_, err := numericStringToCents("")
	assert.Error(t, err)

	_, err = numericStringToCents("not-a-number")
	assert.Error(t, err)
}

func TestCentsToNumericString(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{100, "1.00"},
		{10050, "100.50"},
		{1, "0.01"},
		{-2575, "-25.75"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, centsToNumericString(tt.in))
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 12345, 9999999, -150} {
		got, err := numericStringToCents(centsToNumericString(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}
