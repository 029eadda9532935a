// Package exporter writes the outputs of an order cleaning run.
//
// This package contains five components:
//
// CSVWriter: Core CSV writing with headers and an optional UTF-8 BOM for Excel.
// Files are replaced atomically through files.Manager.
//
// OrderExporter: Writes cleaned_merged_data.csv in the fixed column order and
// rejected_rows.csv when the quality gate dropped rows.
//
// ChartRenderer: Draws the four KPI charts as PNG files with go-chart.
//
// WorkbookWriter: Writes kpi_summary.xlsx, one sheet per aggregate, using excelize.
//
// Exporter: Runs all of the above for one dataset and KPI report.
//
// Example usage:
//
//	exp := exporter.New(exporter.OptionsFromConfig(cfg, paths), files.NewManager(logger), logger)
//	result, err := exp.Export(ctx, dataset, report, runID)
package exporter
