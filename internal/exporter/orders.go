package exporter

import (
	"context"
	"log/slog"

	"orderprep/internal/dataprocessing"
	"orderprep/pkg/contracts/domain"
)

// CleanedHeaders is the column order of cleaned_merged_data.csv
var CleanedHeaders = []string{
	dataprocessing.ColOrderID,
	dataprocessing.ColOrderDate,
	dataprocessing.ColShipDate,
	dataprocessing.ColDeliveryDate,
	dataprocessing.ColDeliveryDays,
	dataprocessing.ColDeliveryStatus,
	dataprocessing.ColRegion,
	dataprocessing.ColShippingMode,
	dataprocessing.ColProductCategory,
	dataprocessing.ColOnTimeFlag,
	dataprocessing.ColDelayFlag,
	dataprocessing.ColShippingCost,
	dataprocessing.ColQualityIssue,
}

// RejectedHeaders is the column order of rejected_rows.csv
var RejectedHeaders = []string{"row_number", dataprocessing.ColOrderID, "issue", "detail"}

// OrderExporter writes the cleaned order table and the rejection report
type OrderExporter struct {
	csvWriter *CSVWriter
	bomPrefix bool
	logger    *slog.Logger
}

// NewOrderExporter creates a new order table exporter
func NewOrderExporter(csvWriter *CSVWriter, bomPrefix bool, logger *slog.Logger) *OrderExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderExporter{
		csvWriter: csvWriter,
		bomPrefix: bomPrefix,
		logger:    logger,
	}
}

// ExportCleaned writes every order in dataset order. The table carries no
// run-specific values, so identical input gives a byte-identical file.
func (e *OrderExporter) ExportCleaned(ctx context.Context, orders []domain.Order, path string) error {
	records := make([][]string, 0, len(orders))
	for i := range orders {
		records = append(records, orderToCSVRow(&orders[i]))
	}

	if err := e.csvWriter.WriteCSV(path, WriteOptions{
		Headers:   CleanedHeaders,
		Records:   records,
		BOMPrefix: e.bomPrefix,
	}); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Cleaned dataset written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}

// ExportRejections writes the rows removed by the quality gate
func (e *OrderExporter) ExportRejections(ctx context.Context, rejections []domain.Rejection, path string) error {
	records := make([][]string, 0, len(rejections))
	for _, r := range rejections {
		records = append(records, []string{
			formatInt(r.RowNumber),
			r.OrderID,
			string(r.Issue),
			r.Detail,
		})
	}

	if err := e.csvWriter.WriteSimpleCSV(path, RejectedHeaders, records); err != nil {
		return err
	}

	e.logger.WarnContext(ctx, "Rejected rows written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}

// orderToCSVRow renders one order. ship_date and delivery_days stay empty
// unless the timeline was derived.
func orderToCSVRow(o *domain.Order) []string {
	shipDate, deliveryDays := "", ""
	if o.TimelineValid {
		shipDate = formatDate(o.ShipDate)
		deliveryDays = formatInt(o.DeliveryDays)
	}

	return []string{
		o.OrderID,
		formatDate(o.OrderDate),
		shipDate,
		formatDate(o.DeliveryDate),
		deliveryDays,
		o.DeliveryStatus,
		o.Region,
		o.ShippingMode,
		o.ProductCategory,
		formatInt(o.OnTimeFlag),
		formatInt(o.DelayFlag),
		formatCost(o.ShippingCost),
		string(o.QualityIssue),
	}
}
