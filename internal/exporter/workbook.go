package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"orderprep/internal/files"
	"orderprep/pkg/contracts/domain"
)

// Worksheet names of kpi_summary.xlsx
const (
	SheetOverview     = "Overview"
	SheetByRegion     = "ByRegion"
	SheetByMode       = "ByShippingMode"
	SheetByMonth      = "ByMonth"
	SheetByCategory   = "ByCategory"
	SheetShippingCost = "ShippingCost"
)

var groupMetricHeaders = []interface{}{"key", "orders", "measured_orders", "avg_delivery_days", "on_time_rate", "delay_rate"}

// WorkbookWriter writes the KPI report as an Excel workbook, one sheet per
// aggregate, with a native column chart next to each grouped table
type WorkbookWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(fm *files.Manager, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if fm == nil {
		fm = files.NewManager(logger)
	}
	return &WorkbookWriter{files: fm, logger: logger}
}

// Write builds the workbook and stores it at path
func (ww *WorkbookWriter) Write(ctx context.Context, report *domain.KPIReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return fmt.Errorf("failed to rename first sheet: %w", err)
	}
	overview := [][]interface{}{
		{"metric", "value"},
		{"total_orders", report.TotalOrders},
		{"measured_orders", report.MeasuredOrders},
		{"overall_on_time_pct", report.OverallOnTimePct},
		{"avg_delivery_days", report.AvgDeliveryDays},
	}
	if err := writeRows(f, SheetOverview, overview); err != nil {
		return err
	}

	grouped := []struct {
		sheet   string
		metrics []domain.GroupMetric
		chart   string
	}{
		{SheetByRegion, report.ByRegion, "Orders by Region"},
		{SheetByMode, report.ByShippingMode, "Orders by Shipping Mode"},
		{SheetByMonth, report.ByMonth, "Orders by Month"},
	}
	for _, g := range grouped {
		if err := ww.writeGroupSheet(f, g.sheet, g.metrics, g.chart); err != nil {
			return err
		}
	}

	categories := [][]interface{}{{"product_category", "orders"}}
	for _, c := range report.OrdersByCategory {
		categories = append(categories, []interface{}{c.Key, c.Count})
	}
	if err := newSheet(f, SheetByCategory); err != nil {
		return err
	}
	if err := writeRows(f, SheetByCategory, categories); err != nil {
		return err
	}

	costs := [][]interface{}{{"shipping_mode", "priced_orders", "avg_shipping_cost"}}
	for _, c := range report.ShippingCostByMode {
		costs = append(costs, []interface{}{c.Key, c.PricedOrders, c.AvgShippingCost.InexactFloat64()})
	}
	if err := newSheet(f, SheetShippingCost); err != nil {
		return err
	}
	if err := writeRows(f, SheetShippingCost, costs); err != nil {
		return err
	}

	if err := ww.files.WriteAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	}); err != nil {
		return err
	}

	ww.logger.InfoContext(ctx, "KPI workbook written",
		slog.String("path", path),
		slog.Int("sheets", len(f.GetSheetList())))
	return nil
}

func (ww *WorkbookWriter) writeGroupSheet(f *excelize.File, sheet string, metrics []domain.GroupMetric, title string) error {
	if err := newSheet(f, sheet); err != nil {
		return err
	}

	rows := [][]interface{}{groupMetricHeaders}
	for _, m := range metrics {
		rows = append(rows, []interface{}{m.Key, m.Orders, m.MeasuredOrders, m.AvgDeliveryDays, m.OnTimeRate, m.DelayRate})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	if len(metrics) == 0 {
		return nil
	}

	last := len(metrics) + 1
	if err := f.AddChart(sheet, "H2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return fmt.Errorf("failed to add chart to %s: %w", sheet, err)
	}
	return nil
}

func newSheet(f *excelize.File, sheet string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
