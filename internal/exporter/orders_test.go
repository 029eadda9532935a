package exporter

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderprep/internal/files"
	"orderprep/internal/shared/testutil"
	"orderprep/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleOrders() []domain.Order {
	return []domain.Order{
		{
			OrderID:         "A1",
			OrderDate:       day(2024, 1, 1),
			ShipDate:        day(2024, 1, 2),
			DeliveryDate:    day(2024, 1, 7),
			DeliveryDays:    5,
			DeliveryStatus:  "On Time",
			Region:          "North",
			ShippingMode:    "Standard",
			ProductCategory: "Books",
			ShippingCost:    decimal.NewNullDecimal(decimal.RequireFromString("12.5")),
			OnTimeFlag:      1,
			TimelineValid:   true,
		},
		{
			OrderID:         "A2",
			OrderDate:       day(2024, 1, 10),
			ShipDate:        day(2024, 1, 10),
			DeliveryDate:    day(2024, 1, 14),
			DeliveryDays:    4,
			DeliveryStatus:  "Delayed",
			Region:          "South, East",
			ShippingMode:    "Express",
			ProductCategory: "Toys",
			DelayFlag:       1,
			TimelineValid:   true,
			QualityIssue:    domain.IssueTimelineRepaired,
		},
		{
			OrderID:        "A3",
			OrderDate:      day(2024, 2, 1),
			DeliveryStatus: "On Time",
			OnTimeFlag:     1,
			QualityIssue:   domain.IssueMalformedDeliveryDate,
		},
	}
}

func newOrderExporter(t *testing.T, bom bool) *OrderExporter {
	logger := testutil.Logger(t)
	return NewOrderExporter(NewCSVWriter(files.NewManager(logger), logger), bom, logger)
}

func TestOrderExporter_ExportCleaned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "cleaned_merged_data.csv")

	require.NoError(t, newOrderExporter(t, false).ExportCleaned(context.Background(), sampleOrders(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := "order_id,order_date,ship_date,delivery_date,delivery_days,delivery_status,region,shipping_mode,product_category,on_time_flag,delay_flag,shipping_cost,quality_issue\n" +
		"A1,2024-01-01,2024-01-02,2024-01-07,5,On Time,North,Standard,Books,1,0,12.50,\n" +
		"A2,2024-01-10,2024-01-10,2024-01-14,4,Delayed,\"South, East\",Express,Toys,0,1,,timeline_repaired\n" +
		"A3,2024-02-01,,,,On Time,,,,1,0,,malformed_delivery_date\n"
	assert.Equal(t, expected, string(data))
}

func TestOrderExporter_BOMPrefix(t *testing.T) {
	tests := []struct {
		name string
		bom  bool
	}{
		{"without BOM", false},
		{"with BOM", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.csv")
			require.NoError(t, newOrderExporter(t, tt.bom).ExportCleaned(context.Background(), sampleOrders()[:1], path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.bom, strings.HasPrefix(string(data), "\ufeff"))
		})
	}
}

func TestOrderExporter_Deterministic(t *testing.T) {
	dir := t.TempDir()
	exp := newOrderExporter(t, false)

	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	require.NoError(t, exp.ExportCleaned(context.Background(), sampleOrders(), first))
	require.NoError(t, exp.ExportCleaned(context.Background(), sampleOrders(), second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOrderExporter_ExportRejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejected_rows.csv")
	rejections := []domain.Rejection{
		{RowNumber: 4, OrderID: "B1", Issue: domain.IssueMissingField, Detail: "missing delivery_date"},
		{RowNumber: 9, OrderID: "B2", Issue: domain.IssueDeliveryBeforeOrder, Detail: "delivery 2024-01-01 before order 2024-01-05"},
	}

	require.NoError(t, newOrderExporter(t, false).ExportRejections(context.Background(), rejections, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, RejectedHeaders, records[0])
	assert.Equal(t, []string{"4", "B1", "missing_field", "missing delivery_date"}, records[1])
	assert.Equal(t, "delivery_before_order", records[2][2])
}

func TestOrderToCSVRow_InvariantsHold(t *testing.T) {
	for _, o := range sampleOrders() {
		row := orderToCSVRow(&o)
		require.Len(t, row, len(CleanedHeaders))

		if row[4] != "" {
			assert.False(t, strings.HasPrefix(row[4], "-"), "delivery_days must not be negative for %s", o.OrderID)
		}
		assert.NotEqual(t, row[9], row[10], "flags must be exclusive for %s", o.OrderID)
	}
}
