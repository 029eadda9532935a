package dataprocessing

import (
	"strings"

	"orderprep/pkg/contracts/domain"
)

// delayedStatuses are the normalized delivery statuses that count as late.
// Every other status, including an empty one, counts as on time.
var delayedStatuses = map[string]bool{
	"delayed": true,
	"late":    true,
	"delay":   true,
}

// NormalizeStatus lower-cases a status and folds '_' and '-' into single spaces
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsDelayedStatus reports whether a raw delivery status means the order was late
func IsDelayedStatus(s string) bool {
	return delayedStatuses[NormalizeStatus(s)]
}

// FlagStats counts the flag assignment
type FlagStats struct {
	OnTime  int
	Delayed int
}

// ApplyFlags sets on_time_flag and delay_flag on every order. Exactly one of
// the two is 1.
func ApplyFlags(orders []domain.Order) FlagStats {
	var stats FlagStats
	for i := range orders {
		o := &orders[i]
		if IsDelayedStatus(o.DeliveryStatus) {
			o.OnTimeFlag, o.DelayFlag = 0, 1
			stats.Delayed++
		} else {
			o.OnTimeFlag, o.DelayFlag = 1, 0
			stats.OnTime++
		}
	}
	return stats
}
