package exporter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-03-09", formatDate(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", formatDate(time.Time{}))
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		name     string
		input    decimal.NullDecimal
		expected string
	}{
		{"missing", decimal.NullDecimal{}, ""},
		{"integer", decimal.NewNullDecimal(decimal.NewFromInt(7)), "7.00"},
		{"one decimal", decimal.NewNullDecimal(decimal.RequireFromString("12.5")), "12.50"},
		{"rounded", decimal.NewNullDecimal(decimal.RequireFromString("3.14159")), "3.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCost(tt.input))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		rate     float64
		expected string
	}{
		{0, "0.0"},
		{1, "100.0"},
		{0.1234, "12.3"},
		{0.12351, "12.4"},
		{1.0 / 3, "33.3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatPercent(tt.rate), "rate %v", tt.rate)
	}
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 120, barWidth(1024, 1))
	assert.Equal(t, 48, barWidth(1024, 10))
	assert.Equal(t, 10, barWidth(200, 50))
}
