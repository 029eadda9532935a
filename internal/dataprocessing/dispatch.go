package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"orderprep/internal/config"
	"orderprep/pkg/contracts/domain"
)

// DispatchRule maps a total order cycle (delivery minus order, in days) to the
// number of days between order and dispatch
type DispatchRule struct {
	SameDayMaxCycle int
	NextDayMaxCycle int
	SameDayDelay    int
	NextDayDelay    int
	LongCycleDelay  int
}

// DefaultDispatchRule is same-day up to 4 days, next-day up to 8, otherwise 3 days
func DefaultDispatchRule() DispatchRule {
	return DispatchRule{
		SameDayMaxCycle: 4,
		NextDayMaxCycle: 8,
		SameDayDelay:    0,
		NextDayDelay:    1,
		LongCycleDelay:  3,
	}
}

// DispatchRuleFromConfig builds the rule from the dispatch config section
func DispatchRuleFromConfig(cfg config.DispatchConfig) DispatchRule {
	return DispatchRule{
		SameDayMaxCycle: cfg.SameDayMaxCycle,
		NextDayMaxCycle: cfg.NextDayMaxCycle,
		SameDayDelay:    cfg.SameDayDelay,
		NextDayDelay:    cfg.NextDayDelay,
		LongCycleDelay:  cfg.LongCycleDelay,
	}
}

// Delay returns the dispatch delay for a cycle. The cycle may be fractional
// when it was replaced by a median.
func (r DispatchRule) Delay(cycle float64) int {
	switch {
	case cycle <= float64(r.SameDayMaxCycle):
		return r.SameDayDelay
	case cycle <= float64(r.NextDayMaxCycle):
		return r.NextDayDelay
	default:
		return r.LongCycleDelay
	}
}

// DispatchStats summarizes one modeling pass
type DispatchStats struct {
	Modeled     int
	Repaired    int
	Inverted    int
	MedianCycle float64
	HasMedian   bool
	ByDelay     map[int]int
}

// DispatchModeler reconstructs ship_date for every usable order
type DispatchModeler struct {
	rule           DispatchRule
	repairInverted bool
	logger         *slog.Logger
}

// NewDispatchModeler creates a dispatch modeler. With repairInverted, orders
// delivered before they were placed get delivery_date = order_date + median cycle.
func NewDispatchModeler(rule DispatchRule, repairInverted bool, logger *slog.Logger) *DispatchModeler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchModeler{
		rule:           rule,
		repairInverted: repairInverted,
		logger:         logger.With(slog.String("component", "dispatch_modeler")),
	}
}

// Model assigns ship_date = order_date + delay to each usable order.
// Negative cycles take the median of all non-negative cycles in the dataset.
func (m *DispatchModeler) Model(ctx context.Context, ds *domain.Dataset) DispatchStats {
	stats := DispatchStats{ByDelay: make(map[int]int)}
	stats.MedianCycle, stats.HasMedian = MedianCycle(ds.Orders)

	for i := range ds.Orders {
		o := &ds.Orders[i]
		if !o.Usable() || o.OrderDate.IsZero() || o.DeliveryDate.IsZero() {
			continue
		}

		cycle := float64(daysBetween(o.OrderDate, o.DeliveryDate))
		if cycle < 0 {
			if !m.repairInverted || !stats.HasMedian {
				stats.Inverted++
				o.Flag(domain.IssueDeliveryBeforeOrder, fmt.Sprintf("delivery %s before order %s",
					o.DeliveryDate.Format(time.DateOnly), o.OrderDate.Format(time.DateOnly)))
				continue
			}

			detail := fmt.Sprintf("delivery %s before order %s, rebuilt from median cycle %.1f",
				o.DeliveryDate.Format(time.DateOnly), o.OrderDate.Format(time.DateOnly), stats.MedianCycle)
			cycle = stats.MedianCycle
			o.DeliveryDate = o.OrderDate.AddDate(0, 0, int(math.Round(cycle)))
			o.Flag(domain.IssueTimelineRepaired, detail)
			stats.Repaired++
		}

		delay := m.rule.Delay(cycle)
		ship := o.OrderDate.AddDate(0, 0, delay)
		if ship.After(o.DeliveryDate) {
			ship = o.DeliveryDate
		}
		o.ShipDate = ship

		stats.ByDelay[daysBetween(o.OrderDate, ship)]++
		stats.Modeled++
	}

	m.logger.InfoContext(ctx, "Dispatch dates modeled",
		slog.Int("modeled", stats.Modeled),
		slog.Int("repaired", stats.Repaired),
		slog.Int("inverted", stats.Inverted),
		slog.Float64("median_cycle", stats.MedianCycle),
		slog.Any("by_delay", stats.ByDelay))

	return stats
}

// MedianCycle returns the median of the non-negative order cycles of usable orders
func MedianCycle(orders []domain.Order) (float64, bool) {
	cycles := make([]int, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if !o.Usable() || o.OrderDate.IsZero() || o.DeliveryDate.IsZero() {
			continue
		}
		if c := daysBetween(o.OrderDate, o.DeliveryDate); c >= 0 {
			cycles = append(cycles, c)
		}
	}
	if len(cycles) == 0 {
		return 0, false
	}

	sort.Ints(cycles)
	mid := len(cycles) / 2
	if len(cycles)%2 == 1 {
		return float64(cycles[mid]), true
	}
	return float64(cycles[mid-1]+cycles[mid]) / 2, true
}
