package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apperrors "orderprep/internal/errors"
	"orderprep/internal/validation"
	"orderprep/pkg/contracts/domain"
)

// Canonical column names of the cleaned table
const (
	ColOrderID         = "order_id"
	ColOrderDate       = "order_date"
	ColShipDate        = "ship_date"
	ColDeliveryDate    = "delivery_date"
	ColDeliveryDays    = "delivery_days"
	ColDeliveryStatus  = "delivery_status"
	ColRegion          = "region"
	ColShippingMode    = "shipping_mode"
	ColProductCategory = "product_category"
	ColShippingCost    = "shipping_cost"
	ColOnTimeFlag      = "on_time_flag"
	ColDelayFlag       = "delay_flag"
	ColQualityIssue    = "quality_issue"
)

// sourceColumns maps the headers of the public fulfillment dataset to canonical names
var sourceColumns = map[string]string{
	"Order_ID":         ColOrderID,
	"Customer_Region":  ColRegion,
	"Product_Category": ColProductCategory,
	"Order_Date":       ColOrderDate,
	"Ship_Date":        ColShipDate,
	"Delivery_Date":    ColDeliveryDate,
	"Shipping_Mode":    ColShippingMode,
	"Shipping_Cost":    ColShippingCost,
	"Delivery_Status":  ColDeliveryStatus,
	"Delivery_Days":    ColDeliveryDays,
}

// columnAliases are accepted synonyms after lower-casing
var columnAliases = map[string]string{
	"customer_region": ColRegion,
}

// LoadStats summarizes one load
type LoadStats struct {
	Rows          int
	BlankRows     int
	MissingFields int
	InvalidCost   int
}

// Loader reads the raw order dataset
type Loader struct {
	logger    *slog.Logger
	validator *validation.RecordValidator
	sheet     string
}

// NewLoader creates a loader. sheet selects the worksheet for XLSX input; empty
// means the first sheet.
func NewLoader(logger *slog.Logger, sheet string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger.With(slog.String("component", "loader")),
		validator: validation.NewRecordValidator(),
		sheet:     sheet,
	}
}

// Load reads path (CSV or XLSX, chosen by extension) into a dataset.
// I/O failures and missing required columns are returned as errors; row-level
// problems are recorded on the orders.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Dataset, LoadStats, error) {
	var (
		header []string
		rows   []sourceRow
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = l.readXLSX(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, LoadStats{}, apperrors.NewStorageError("failed to open input", err).
				WithContext("path", path)
		}
		defer f.Close()
		header, rows, err = readCSV(f)
	}
	if err != nil {
		return nil, LoadStats{}, err
	}

	ds, stats, err := l.buildDataset(header, rows)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, stats, err
	}
	ds.SourcePath = path

	l.logger.InfoContext(ctx, "Orders loaded",
		slog.String("path", path),
		slog.Int("rows", stats.Rows),
		slog.Int("blank_rows", stats.BlankRows),
		slog.Int("missing_fields", stats.MissingFields),
		slog.Int("invalid_shipping_cost", stats.InvalidCost))

	return ds, stats, nil
}

// sourceRow is one data row with its 1-based line in the source
type sourceRow struct {
	line   int
	fields []string
}

// readCSV reads a header line and all data rows. Short rows are allowed.
func readCSV(r io.Reader) ([]string, []sourceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, apperrors.NewAppValidationError("input has no header row")
	}
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read CSV header", err)
	}

	var rows []sourceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.NewParsingError("failed to read CSV row", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, sourceRow{line: line, fields: record})
	}

	return header, rows, nil
}

func (l *Loader) readXLSX(path string) ([]string, []sourceRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, apperrors.NewAppValidationError("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read worksheet", err).
			WithContext("sheet", sheet)
	}
	if len(all) == 0 {
		return nil, nil, apperrors.NewAppValidationError("input has no header row").
			WithContext("sheet", sheet)
	}

	l.logger.Debug("Worksheet read",
		slog.String("sheet", sheet),
		slog.Int("total_rows", len(all)))

	rows := make([]sourceRow, 0, len(all)-1)
	for i, r := range all[1:] {
		rows = append(rows, sourceRow{line: i + 2, fields: r})
	}
	return all[0], rows, nil
}

// NormalizeColumnName maps a source header to its canonical snake_case name
func NormalizeColumnName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D', '\u2060':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if canonical, ok := sourceColumns[name]; ok {
		return canonical
	}

	lower := strings.ToLower(name)
	lower = strings.NewReplacer(" ", "_", "-", "_").Replace(lower)
	if canonical, ok := columnAliases[lower]; ok {
		return canonical
	}
	return lower
}

func (l *Loader) buildDataset(header []string, rows []sourceRow) (*domain.Dataset, LoadStats, error) {
	var stats LoadStats

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumnName(h)
		columns[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range l.validator.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, apperrors.NewAppValidationError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))).
			WithContext("columns", columns)
	}

	get := func(fields []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	ds := &domain.Dataset{
		Columns: columns,
		Orders:  make([]domain.Order, 0, len(rows)),
	}

	for _, row := range rows {
		if isBlank(row.fields) {
			stats.BlankRows++
			continue
		}

		raw := domain.RawOrder{
			RowNumber:       row.line,
			OrderID:         get(row.fields, ColOrderID),
			OrderDate:       get(row.fields, ColOrderDate),
			ShipDate:        get(row.fields, ColShipDate),
			DeliveryDate:    get(row.fields, ColDeliveryDate),
			DeliveryDays:    get(row.fields, ColDeliveryDays),
			DeliveryStatus:  get(row.fields, ColDeliveryStatus),
			Region:          get(row.fields, ColRegion),
			ShippingMode:    get(row.fields, ColShippingMode),
			ProductCategory: get(row.fields, ColProductCategory),
			ShippingCost:    get(row.fields, ColShippingCost),
		}

		order := domain.Order{
			RowNumber:       raw.RowNumber,
			OrderID:         raw.OrderID,
			DeliveryStatus:  raw.DeliveryStatus,
			Region:          raw.Region,
			ShippingMode:    raw.ShippingMode,
			ProductCategory: raw.ProductCategory,
			Raw:             raw,
		}

		if cost, ok := parseCost(raw.ShippingCost); ok {
			order.ShippingCost = decimal.NullDecimal{Decimal: cost, Valid: true}
		} else if raw.ShippingCost != "" {
			stats.InvalidCost++
		}

		fields, err := l.validator.MissingFields(&raw)
		if err != nil {
			return nil, stats, err
		}
		if len(fields) > 0 {
			stats.MissingFields++
			order.Flag(domain.IssueMissingField, "missing "+strings.Join(fields, ", "))
		}

		ds.Orders = append(ds.Orders, order)
		stats.Rows++
	}

	return ds, stats, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseCost accepts plain and currency-formatted amounts such as "$1,234.50"
func parseCost(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
