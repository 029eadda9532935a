package exporter

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the layout of every date column in the cleaned table
const DateFormat = "2006-01-02"

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatDate formats a day, or "" when the date is unknown
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

// formatCost formats an optional amount with 2 decimal places
func formatCost(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// formatPercent turns a 0..1 rate into a percentage rounded to one decimal
func formatPercent(rate float64) string {
	return strconv.FormatFloat(roundPercent(rate), 'f', 1, 64)
}
