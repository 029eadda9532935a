package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orderprep/internal/config"
	"orderprep/pkg/contracts/domain"
)

var blockingIssues = []domain.QualityIssue{
	domain.IssueMissingField,
	domain.IssueMalformedOrderDate,
	domain.IssueMalformedDeliveryDate,
	domain.IssueDeliveryBeforeOrder,
}

// QualityStats summarizes the gate decision
type QualityStats struct {
	Kept     int
	Dropped  int
	Flagged  int
	Repaired int
	ByIssue  map[domain.QualityIssue]int
}

// QualityGate applies the invalid-row policy after the timeline stages
type QualityGate struct {
	policy string
	logger *slog.Logger
}

// NewQualityGate creates a gate for policy "drop" or "flag"
func NewQualityGate(policy string, logger *slog.Logger) (*QualityGate, error) {
	switch policy {
	case config.PolicyDrop, config.PolicyFlag:
	default:
		return nil, fmt.Errorf("unknown quality policy %q", policy)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityGate{
		policy: policy,
		logger: logger.With(slog.String("component", "quality_gate")),
	}, nil
}

// Apply removes (drop) or keeps with empty computed fields (flag) every order
// with a blocking quality issue. Dropped rows are appended to ds.Rejections.
// Input order of the remaining rows is preserved.
func (g *QualityGate) Apply(ctx context.Context, ds *domain.Dataset) QualityStats {
	stats := QualityStats{ByIssue: make(map[domain.QualityIssue]int)}

	kept := ds.Orders[:0]
	for _, o := range ds.Orders {
		if o.QualityIssue != domain.IssueNone {
			stats.ByIssue[o.QualityIssue]++
		}
		if o.QualityIssue == domain.IssueTimelineRepaired {
			stats.Repaired++
		}

		if !o.QualityIssue.Blocking() {
			kept = append(kept, o)
			continue
		}

		if g.policy == config.PolicyFlag {
			o.TimelineValid = false
			o.DeliveryDays = 0
			o.ShipDate = time.Time{}
			kept = append(kept, o)
			stats.Flagged++
			continue
		}

		ds.Rejections = append(ds.Rejections, domain.Rejection{
			RowNumber: o.RowNumber,
			OrderID:   o.OrderID,
			Issue:     o.QualityIssue,
			Detail:    o.IssueDetail,
		})
		stats.Dropped++
	}
	ds.Orders = kept
	stats.Kept = len(kept)

	g.logger.InfoContext(ctx, "Quality policy applied",
		slog.String("policy", g.policy),
		slog.Int("kept", stats.Kept),
		slog.Int("dropped", stats.Dropped),
		slog.Int("flagged", stats.Flagged),
		slog.Int("repaired", stats.Repaired))

	if stats.Dropped > 0 || stats.Flagged > 0 {
		for _, issue := range blockingIssues {
			if n := stats.ByIssue[issue]; n > 0 {
				g.logger.WarnContext(ctx, "Rows with quality issue",
					slog.String("issue", string(issue)),
					slog.Int("count", n))
			}
		}
	}

	return stats
}
