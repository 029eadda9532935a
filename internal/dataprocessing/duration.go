package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"orderprep/pkg/contracts/domain"
)

// DurationStats summarizes one recalculation pass
type DurationStats struct {
	Recomputed     int
	SourceMismatch int
	SourceMissing  int
	Skipped        int
}

// DurationRecalculator derives delivery_days from the modeled timeline
type DurationRecalculator struct {
	logger *slog.Logger
}

// NewDurationRecalculator creates a duration recalculator
func NewDurationRecalculator(logger *slog.Logger) *DurationRecalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DurationRecalculator{logger: logger.With(slog.String("component", "duration_recalculator"))}
}

// Recalculate sets delivery_days = delivery_date - ship_date for every order
// whose ship date was modeled. The source value is never trusted; disagreements
// are only counted.
func (r *DurationRecalculator) Recalculate(ctx context.Context, ds *domain.Dataset) DurationStats {
	var stats DurationStats

	for i := range ds.Orders {
		o := &ds.Orders[i]
		if !o.Usable() || o.ShipDate.IsZero() || o.DeliveryDate.IsZero() {
			o.TimelineValid = false
			o.DeliveryDays = 0
			stats.Skipped++
			continue
		}

		o.DeliveryDays = daysBetween(o.ShipDate, o.DeliveryDate)
		o.TimelineValid = true
		stats.Recomputed++

		source, ok := parseSourceDays(o.Raw.DeliveryDays)
		switch {
		case !ok:
			stats.SourceMissing++
		case source != o.DeliveryDays:
			stats.SourceMismatch++
		}
	}

	r.logger.InfoContext(ctx, "Delivery days recalculated",
		slog.Int("recomputed", stats.Recomputed),
		slog.Int("source_mismatch", stats.SourceMismatch),
		slog.Int("source_missing", stats.SourceMissing),
		slog.Int("skipped", stats.Skipped))

	return stats
}

// parseSourceDays reads a source delivery_days value such as "3" or "3.0"
func parseSourceDays(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
