package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"orderprep/pkg/contracts/domain"
)

// UnknownDimension replaces empty grouping values
const UnknownDimension = "Unknown"

// Column names of the KPI frame
const (
	kpiRegion   = "region"
	kpiMode     = "shipping_mode"
	kpiMonth    = "order_month"
	kpiCategory = "product_category"
	kpiDays     = "delivery_days"
	kpiMeasured = "measured"
	kpiOnTime   = "on_time_flag"
	kpiDelay    = "delay_flag"
)

// KPIEngine derives the per-row flags and the dataset aggregates
type KPIEngine struct {
	logger *slog.Logger
}

// NewKPIEngine creates a KPI engine
func NewKPIEngine(logger *slog.Logger) *KPIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIEngine{logger: logger.With(slog.String("component", "kpi_engine"))}
}

// Compute sets on_time_flag/delay_flag on every order and aggregates them.
// Rates use every row; delivery day averages use rows with a valid timeline only.
func (e *KPIEngine) Compute(ctx context.Context, ds *domain.Dataset) (*domain.KPIReport, FlagStats, error) {
	flags := ApplyFlags(ds.Orders)

	report := emptyReport()
	report.TotalOrders = len(ds.Orders)
	if len(ds.Orders) == 0 {
		e.logger.WarnContext(ctx, "No orders to aggregate")
		return report, flags, nil
	}

	frame := buildKPIFrame(ds.Orders)
	df := frame.df
	if df.Err != nil {
		return nil, flags, fmt.Errorf("build KPI frame: %w", df.Err)
	}

	measured := sumFloats(df.Col(kpiMeasured).Float())
	report.MeasuredOrders = int(measured)
	report.OverallOnTimePct = df.Col(kpiOnTime).Mean() * 100
	if measured > 0 {
		report.AvgDeliveryDays = sumFloats(df.Col(kpiDays).Float()) / measured
	}

	var err error
	if report.ByRegion, err = groupMetrics(frame, kpiRegion); err != nil {
		return nil, flags, err
	}
	if report.ByShippingMode, err = groupMetrics(frame, kpiMode); err != nil {
		return nil, flags, err
	}
	if report.ByMonth, err = groupMetrics(frame, kpiMonth); err != nil {
		return nil, flags, err
	}
	if report.OrdersByCategory, err = groupCounts(frame, kpiCategory); err != nil {
		return nil, flags, err
	}

	report.DelaysByShippingMode = append([]domain.GroupMetric(nil), report.ByShippingMode...)
	sort.SliceStable(report.DelaysByShippingMode, func(i, j int) bool {
		a, b := report.DelaysByShippingMode[i], report.DelaysByShippingMode[j]
		if a.DelayRate != b.DelayRate {
			return a.DelayRate > b.DelayRate
		}
		return a.Key < b.Key
	})

	for _, m := range report.ByRegion {
		report.DeliveriesByRegion = append(report.DeliveriesByRegion, domain.CountMetric{Key: m.Key, Count: m.Orders})
	}
	sortCounts(report.DeliveriesByRegion)

	// ByMonth is already chronological; orders without a month are left out
	for _, m := range report.ByMonth {
		if m.Key != UnknownDimension {
			report.DeliveriesOverTime = append(report.DeliveriesOverTime, domain.CountMetric{Key: m.Key, Count: m.Orders})
		}
	}

	report.ShippingCostByMode = shippingCostByMode(ds.Orders)

	e.logger.InfoContext(ctx, "KPIs computed",
		slog.Int("orders", report.TotalOrders),
		slog.Int("measured", report.MeasuredOrders),
		slog.Float64("on_time_pct", report.OverallOnTimePct),
		slog.Float64("avg_delivery_days", report.AvgDeliveryDays),
		slog.Int("regions", len(report.ByRegion)),
		slog.Int("shipping_modes", len(report.ByShippingMode)),
		slog.Int("months", len(report.ByMonth)))

	return report, flags, nil
}

func emptyReport() *domain.KPIReport {
	return &domain.KPIReport{
		ByRegion:             []domain.GroupMetric{},
		ByShippingMode:       []domain.GroupMetric{},
		ByMonth:              []domain.GroupMetric{},
		DelaysByShippingMode: []domain.GroupMetric{},
		OrdersByCategory:     []domain.CountMetric{},
		DeliveriesByRegion:   []domain.CountMetric{},
		DeliveriesOverTime:   []domain.CountMetric{},
		ShippingCostByMode:   []domain.CostMetric{},
	}
}

// kpiFrame is the gota frame plus the label of every dimension code.
// gota reads "NA" and "NaN" as missing, so dimension columns hold codes and
// the original labels are restored after grouping.
type kpiFrame struct {
	df     dataframe.DataFrame
	labels map[string][]string
}

// dimensionCodes encodes the values of one dimension in first-seen order
type dimensionCodes struct {
	index  map[string]int
	labels []string
}

func newDimensionCodes() *dimensionCodes {
	return &dimensionCodes{index: make(map[string]int)}
}

func (c *dimensionCodes) code(label string) string {
	i, ok := c.index[label]
	if !ok {
		i = len(c.labels)
		c.index[label] = i
		c.labels = append(c.labels, label)
	}
	return "g" + strconv.Itoa(i)
}

// label maps a code back to its label
func (f kpiFrame) label(key, code string) (string, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(code, "g"))
	labels := f.labels[key]
	if err != nil || !strings.HasPrefix(code, "g") || i < 0 || i >= len(labels) {
		return "", fmt.Errorf("unknown %s group %q", key, code)
	}
	return labels[i], nil
}

// buildKPIFrame lays the orders out as a gota frame. Unmeasured rows carry 0
// delivery days and measured=0, so sums stay free of NaN.
func buildKPIFrame(orders []domain.Order) kpiFrame {
	n := len(orders)
	dims := map[string]*dimensionCodes{
		kpiRegion:   newDimensionCodes(),
		kpiMode:     newDimensionCodes(),
		kpiMonth:    newDimensionCodes(),
		kpiCategory: newDimensionCodes(),
	}
	regions := make([]string, n)
	modes := make([]string, n)
	months := make([]string, n)
	categories := make([]string, n)
	days := make([]float64, n)
	measured := make([]float64, n)
	onTime := make([]float64, n)
	delay := make([]float64, n)

	for i := range orders {
		o := &orders[i]
		regions[i] = dims[kpiRegion].code(dimension(o.Region))
		modes[i] = dims[kpiMode].code(dimension(o.ShippingMode))
		months[i] = dims[kpiMonth].code(dimension(o.OrderMonth()))
		categories[i] = dims[kpiCategory].code(dimension(o.ProductCategory))
		if o.TimelineValid {
			days[i] = float64(o.DeliveryDays)
			measured[i] = 1
		}
		onTime[i] = float64(o.OnTimeFlag)
		delay[i] = float64(o.DelayFlag)
	}

	labels := make(map[string][]string, len(dims))
	for key, c := range dims {
		labels[key] = c.labels
	}

	return kpiFrame{
		df: dataframe.New(
			series.New(regions, series.String, kpiRegion),
			series.New(modes, series.String, kpiMode),
			series.New(months, series.String, kpiMonth),
			series.New(categories, series.String, kpiCategory),
			series.New(days, series.Float, kpiDays),
			series.New(measured, series.Float, kpiMeasured),
			series.New(onTime, series.Float, kpiOnTime),
			series.New(delay, series.Float, kpiDelay),
		),
		labels: labels,
	}
}

// aggName is the column name gota gives an aggregated column
func aggName(col string, typ dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", col, typ)
}

// groupMetrics aggregates the frame by one dimension, sorted by key
func groupMetrics(f kpiFrame, key string) ([]domain.GroupMetric, error) {
	typs := []dataframe.AggregationType{
		dataframe.Aggregation_COUNT,
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_MEAN,
		dataframe.Aggregation_MEAN,
	}
	cols := []string{kpiOnTime, kpiMeasured, kpiDays, kpiOnTime, kpiDelay}

	groups := f.df.GroupBy(key)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", key, groups.Err)
	}
	agg := groups.Aggregation(typs, cols)
	if agg.Err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", key, agg.Err)
	}

	codes := agg.Col(key).Records()
	counts := agg.Col(aggName(kpiOnTime, dataframe.Aggregation_COUNT)).Float()
	measured := agg.Col(aggName(kpiMeasured, dataframe.Aggregation_SUM)).Float()
	daySums := agg.Col(aggName(kpiDays, dataframe.Aggregation_SUM)).Float()
	onTime := agg.Col(aggName(kpiOnTime, dataframe.Aggregation_MEAN)).Float()
	delay := agg.Col(aggName(kpiDelay, dataframe.Aggregation_MEAN)).Float()

	metrics := make([]domain.GroupMetric, len(codes))
	for i, code := range codes {
		k, err := f.label(key, code)
		if err != nil {
			return nil, err
		}
		m := domain.GroupMetric{
			Key:            k,
			Orders:         int(counts[i]),
			MeasuredOrders: int(measured[i]),
			OnTimeRate:     onTime[i],
			DelayRate:      delay[i],
		}
		if measured[i] > 0 {
			m.AvgDeliveryDays = daySums[i] / measured[i]
		}
		metrics[i] = m
	}

	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Key < metrics[j].Key })
	return metrics, nil
}

// groupCounts counts rows per dimension value, largest first
func groupCounts(f kpiFrame, key string) ([]domain.CountMetric, error) {
	groups := f.df.GroupBy(key)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", key, groups.Err)
	}
	agg := groups.Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{kpiOnTime})
	if agg.Err != nil {
		return nil, fmt.Errorf("count by %s: %w", key, agg.Err)
	}

	codes := agg.Col(key).Records()
	counts := agg.Col(aggName(kpiOnTime, dataframe.Aggregation_COUNT)).Float()

	out := make([]domain.CountMetric, len(codes))
	for i, code := range codes {
		k, err := f.label(key, code)
		if err != nil {
			return nil, err
		}
		out[i] = domain.CountMetric{Key: k, Count: int(counts[i])}
	}
	sortCounts(out)
	return out, nil
}

// shippingCostByMode averages the known shipping costs per mode in exact decimal arithmetic
func shippingCostByMode(orders []domain.Order) []domain.CostMetric {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int64)
	for i := range orders {
		o := &orders[i]
		if !o.ShippingCost.Valid {
			continue
		}
		mode := dimension(o.ShippingMode)
		sums[mode] = sums[mode].Add(o.ShippingCost.Decimal)
		counts[mode]++
	}

	out := make([]domain.CostMetric, 0, len(sums))
	for mode, sum := range sums {
		out = append(out, domain.CostMetric{
			Key:             mode,
			PricedOrders:    int(counts[mode]),
			AvgShippingCost: sum.Div(decimal.NewFromInt(counts[mode])).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sortCounts(c []domain.CountMetric) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].Key < c[j].Key
	})
}

func dimension(v string) string {
	if v == "" {
		return UnknownDimension
	}
	return v
}

func sumFloats(v []float64) float64 {
	var s float64
	for _, f := range v {
		s += f
	}
	return s
}
