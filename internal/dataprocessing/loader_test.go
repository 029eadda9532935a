package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "orderprep/internal/errors"
	"orderprep/internal/shared/testutil"
	"orderprep/pkg/contracts/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"source header", "Customer_Region", ColRegion},
		{"source header with BOM", "\ufeffOrder_ID", ColOrderID},
		{"zero width space", "Order_Date\u200b", ColOrderDate},
		{"padded", "  Shipping_Mode ", ColShippingMode},
		{"already canonical", "delivery_status", ColDeliveryStatus},
		{"spaces and dashes", "Product Category", ColProductCategory},
		{"lower-cased alias", "customer_region", ColRegion},
		{"dashed", "Ship-Date", ColShipDate},
		{"unknown column", "Customer Segment", "customer_segment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeColumnName(tt.input))
		})
	}
}

func TestLoader_LoadCSV(t *testing.T) {
	content := "\ufeffOrder_ID,Customer_Region,Product_Category,Order_Date,Ship_Date,Delivery_Date,Shipping_Mode,Shipping_Cost,Delivery_Status,Delivery_Days\n" +
		"A1,North,Books,2024-01-01,2024-01-02,2024-01-05,Standard,$1,234.50,On Time,4\n" +
		",,,,,,,,,\n" +
		"A2,South,Toys,2024-01-03,,,Express,12.00,Delayed,\n" +
		"A3,East,Toys,2024-02-01,2024-02-01,2024-02-03,Express,abc,Delayed,2\n"

	// The currency value contains a comma, so quote it
	content = strings.Replace(content, "$1,234.50", `"$1,234.50"`, 1)
	path := writeFile(t, "orders.csv", content)

	loader := NewLoader(testutil.Logger(t), "")
	ds, stats, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, ds.SourcePath)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.BlankRows)
	assert.Equal(t, 1, stats.MissingFields)
	assert.Equal(t, 1, stats.InvalidCost)
	require.Len(t, ds.Orders, 3)

	first := ds.Orders[0]
	assert.Equal(t, "A1", first.OrderID)
	assert.Equal(t, 2, first.RowNumber)
	assert.Equal(t, "North", first.Region)
	assert.Equal(t, "Books", first.ProductCategory)
	assert.True(t, first.ShippingCost.Valid)
	assert.Equal(t, "1234.5", first.ShippingCost.Decimal.String())
	assert.Equal(t, domain.IssueNone, first.QualityIssue)
	assert.Equal(t, "4", first.Raw.DeliveryDays)

	second := ds.Orders[1]
	assert.Equal(t, 4, second.RowNumber)
	assert.Equal(t, domain.IssueMissingField, second.QualityIssue)
	assert.Equal(t, "missing delivery_date", second.IssueDetail)

	third := ds.Orders[2]
	assert.False(t, third.ShippingCost.Valid)
	assert.Equal(t, domain.IssueNone, third.QualityIssue)
}

func TestLoader_ShortRowsAreMissingFields(t *testing.T) {
	path := writeFile(t, "short.csv",
		"order_id,order_date,delivery_date,delivery_status\n"+
			"A1,2024-01-01\n")

	ds, stats, err := NewLoader(testutil.Logger(t), "").Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MissingFields)
	require.Len(t, ds.Orders, 1)
	assert.Equal(t, "missing delivery_date, delivery_status", ds.Orders[0].IssueDetail)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		missing  bool
		errType  apperrors.ErrorType
		contains string
	}{
		{
			name:     "missing file",
			missing:  true,
			errType:  apperrors.ErrTypeStorage,
			contains: "failed to open input",
		},
		{
			name:     "empty file",
			content:  "",
			errType:  apperrors.ErrTypeValidation,
			contains: "no header row",
		},
		{
			name:     "missing required columns",
			content:  "order_id,region\nA1,North\n",
			errType:  apperrors.ErrTypeValidation,
			contains: "missing required columns: order_date, delivery_date, delivery_status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.csv")
			if !tt.missing {
				path = writeFile(t, "orders.csv", tt.content)
			}

			ds, _, err := NewLoader(testutil.Logger(t), "").Load(context.Background(), path)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, apperrors.IsType(err, tt.errType))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoader_LoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")

	f := excelize.NewFile()
	sheet := "Orders"
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	rows := [][]interface{}{
		{"Order_ID", "Order_Date", "Delivery_Date", "Delivery_Status", "Shipping_Mode"},
		{"X1", "2024-03-01", "2024-03-04", "On Time", "Standard"},
		{"X2", "2024-03-02", "2024-03-09", "Delayed", "Economy"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tests := []struct {
		name    string
		sheet   string
		wantErr bool
	}{
		{"first sheet", "", false},
		{"named sheet", "Orders", false},
		{"unknown sheet", "Nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, stats, err := NewLoader(testutil.Logger(t), tt.sheet).Load(context.Background(), path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Rows)
			require.Len(t, ds.Orders, 2)
			assert.Equal(t, "X2", ds.Orders[1].OrderID)
			assert.Equal(t, 3, ds.Orders[1].RowNumber)
			assert.Equal(t, "Economy", ds.Orders[1].ShippingMode)
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"12.5", "12.5", true},
		{"$1,000.25", "1000.25", true},
		{" 7 ", "7", true},
		{"", "", false},
		{"n/a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, ok := parseCost(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d.String())
			}
		})
	}
}
