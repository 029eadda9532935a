package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"orderprep/pkg/contracts/domain"
)

// DateLayouts are tried in order; the first layout that parses wins
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/06",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Excel stores dates as days since 1899-12-30; GetRows returns the raw serial
// when a cell has no date format.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	minExcelSerial = 20000 // 1954-10-03
	maxExcelSerial = 80000 // 2119-01-10
)

// Parsed dates outside these years are rejected; 0001-01-01 is the zero time
const (
	minDateYear = 1900
	maxDateYear = 2199
)

// ParseDate parses s with the first matching layout and truncates it to a UTC day
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			day := toDay(t)
			if y := day.Year(); y < minDateYear || y > maxDateYear {
				return time.Time{}, fmt.Errorf("date %q out of range", s)
			}
			return day, nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// toDay keeps the calendar date as written and drops the time of day
func toDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateStats summarizes one normalization pass
type DateStats struct {
	Parsed            int
	MalformedOrder    int
	MalformedDelivery int
	UnparsedShip      int
}

// DateNormalizer parses the date columns of every order
type DateNormalizer struct {
	logger *slog.Logger
}

// NewDateNormalizer creates a date normalizer
func NewDateNormalizer(logger *slog.Logger) *DateNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DateNormalizer{logger: logger.With(slog.String("component", "date_normalizer"))}
}

// Normalize fills OrderDate, ShipDate and DeliveryDate from the raw values.
// Unparseable order or delivery dates flag the row; a bad ship date is only
// counted because ship_date is rebuilt later.
func (n *DateNormalizer) Normalize(ctx context.Context, ds *domain.Dataset) DateStats {
	var stats DateStats

	for i := range ds.Orders {
		o := &ds.Orders[i]

		orderDate, orderErr := ParseDate(o.Raw.OrderDate)
		deliveryDate, deliveryErr := ParseDate(o.Raw.DeliveryDate)
		o.OrderDate = orderDate
		o.DeliveryDate = deliveryDate

		if o.Raw.ShipDate != "" {
			if shipDate, err := ParseDate(o.Raw.ShipDate); err == nil {
				o.ShipDate = shipDate
			} else {
				stats.UnparsedShip++
			}
		}

		// Empty values were already reported by the loader
		if orderErr != nil && o.Raw.OrderDate != "" {
			stats.MalformedOrder++
			o.Flag(domain.IssueMalformedOrderDate, orderErr.Error())
		}
		if deliveryErr != nil && o.Raw.DeliveryDate != "" {
			stats.MalformedDelivery++
			o.Flag(domain.IssueMalformedDeliveryDate, deliveryErr.Error())
		}
		if orderErr == nil && deliveryErr == nil {
			stats.Parsed++
		}
	}

	n.logger.InfoContext(ctx, "Dates normalized",
		slog.Int("parsed", stats.Parsed),
		slog.Int("malformed_order_date", stats.MalformedOrder),
		slog.Int("malformed_delivery_date", stats.MalformedDelivery),
		slog.Int("unparsed_ship_date", stats.UnparsedShip))

	return stats
}

// daysBetween returns the whole number of days from a to b
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(time.Hour).Hours() / 24)
}
