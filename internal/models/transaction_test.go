package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizeAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.234,56", "1234.56"},
		{"-45,00", "-45.00"},
		{" 3,00 ", "3.00"},
		{"-1.000.000,99", "-1000000.99"},
		{"0,83", "0.83"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, StandardizeAmount(tt.input))
	}
}

func TestParseAmountPreservesScale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-45,00", "-45.00"},
		{"-4,50", "-4.50"},
		{"1.234,56", "1234.56"},
		{"3", "3"},
	}

	for _, tt := range tests {
		amount, err := ParseAmount(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, FormatAmount(amount))
	}
}

func TestParseAmountInvalid(t *testing.T) {
	_, err := ParseAmount("not a number")
	assert.Error(t, err)
}
