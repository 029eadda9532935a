package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	apperrors "orderprep/internal/errors"
	"orderprep/internal/files"
	"orderprep/pkg/contracts/domain"
)

// Chart file names written to the visuals directory
const (
	ChartDeliveriesByRegion   = "deliveries_by_region.png"
	ChartDelaysByShippingMode = "delays_by_shipping_mode.png"
	ChartDeliveriesOverTime   = "deliveries_over_time.png"
	ChartOrdersByCategory     = "orders_by_category.png"
)

// ChartRenderer draws the KPI charts as PNG files
type ChartRenderer struct {
	files  *files.Manager
	width  int
	height int
	logger *slog.Logger
}

// NewChartRenderer creates a chart renderer producing width x height images
func NewChartRenderer(fm *files.Manager, width, height int, logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if fm == nil {
		fm = files.NewManager(logger)
	}
	return &ChartRenderer{
		files:  fm,
		width:  width,
		height: height,
		logger: logger,
	}
}

// ChartResult lists the charts written and the ones skipped
type ChartResult struct {
	Written []string
	Skipped map[string]error
}

// RenderAll writes the four standard charts into dir. A chart that cannot be
// drawn is logged and skipped; the others are still produced.
func (r *ChartRenderer) RenderAll(ctx context.Context, report *domain.KPIReport, dir string) ChartResult {
	result := ChartResult{Skipped: make(map[string]error)}

	jobs := []struct {
		name   string
		render func(io.Writer) error
	}{
		{ChartDeliveriesByRegion, func(w io.Writer) error {
			return r.renderBars(w, "Deliveries by Region", "Customer Region", "Number of Orders",
				countBars(report.DeliveriesByRegion))
		}},
		{ChartDelaysByShippingMode, func(w io.Writer) error {
			return r.renderBars(w, "Delay Rate by Shipping Mode (%)", "Shipping Mode", "Delay Rate (%)",
				delayBars(report.DelaysByShippingMode))
		}},
		{ChartDeliveriesOverTime, func(w io.Writer) error {
			return r.renderMonthly(w, "Deliveries Over Time (Orders per Month)", report.DeliveriesOverTime)
		}},
		{ChartOrdersByCategory, func(w io.Writer) error {
			return r.renderBars(w, "Orders by Product Category", "Product Category", "Number of Orders",
				countBars(report.OrdersByCategory))
		}},
	}

	for _, job := range jobs {
		path := filepath.Join(dir, job.name)
		if err := r.files.WriteAtomic(path, job.render); err != nil {
			renderErr := apperrors.NewRenderError(fmt.Sprintf("failed to render %s", job.name), err).
				WithContext("path", path)
			result.Skipped[job.name] = renderErr
			r.logger.WarnContext(ctx, "Chart skipped",
				slog.String("chart", job.name),
				slog.String("error", err.Error()))
			continue
		}
		result.Written = append(result.Written, path)
	}

	r.logger.InfoContext(ctx, "Charts rendered",
		slog.String("dir", dir),
		slog.Int("written", len(result.Written)),
		slog.Int("skipped", len(result.Skipped)))

	return result
}

func (r *ChartRenderer) renderBars(w io.Writer, title, xName, yName string, bars []chart.Value) error {
	if len(bars) == 0 {
		return fmt.Errorf("no data for %q", title)
	}

	maxValue := 0.0
	for _, b := range bars {
		maxValue = math.Max(maxValue, b.Value)
	}
	if maxValue == 0 {
		maxValue = 1
	}

	width := barWidth(r.width, len(bars))
	graph := chart.BarChart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth:   width,
		BarSpacing: width,
		YAxis: chart.YAxis{
			Name: yName,
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: maxValue * 1.1,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	r.logger.Debug("Rendering bar chart",
		slog.String("title", title),
		slog.String("x_axis", xName),
		slog.Int("bars", len(bars)))

	return graph.Render(chart.PNG, w)
}

func (r *ChartRenderer) renderMonthly(w io.Writer, title string, months []domain.CountMetric) error {
	switch len(months) {
	case 0:
		return fmt.Errorf("no data for %q", title)
	case 1:
		// a time series needs two points; one month is drawn as a single bar
		return r.renderBars(w, title, "Month", "Number of Orders", countBars(months))
	}

	xs := make([]time.Time, 0, len(months))
	ys := make([]float64, 0, len(months))
	maxValue := 1.0
	for _, m := range months {
		t, err := time.Parse("2006-01", m.Key)
		if err != nil {
			return fmt.Errorf("bad month %q: %w", m.Key, err)
		}
		xs = append(xs, t)
		ys = append(ys, float64(m.Count))
		maxValue = math.Max(maxValue, float64(m.Count))
	}

	graph := chart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Month",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			Name:  "Number of Orders",
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Orders",
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

func countBars(counts []domain.CountMetric) []chart.Value {
	bars := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Value{Label: c.Key, Value: float64(c.Count)})
	}
	return bars
}

func delayBars(metrics []domain.GroupMetric) []chart.Value {
	bars := make([]chart.Value, 0, len(metrics))
	for _, m := range metrics {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%s%%)", m.Key, formatPercent(m.DelayRate)),
			Value: roundPercent(m.DelayRate),
		})
	}
	return bars
}

// roundPercent turns a 0..1 rate into a percentage with one decimal
func roundPercent(rate float64) float64 {
	return math.Round(rate*1000) / 10
}

// barWidth spreads the bars over the canvas
func barWidth(width, bars int) int {
	w := width / (bars*2 + 1)
	switch {
	case w < 10:
		return 10
	case w > 120:
		return 120
	}
	return w
}
