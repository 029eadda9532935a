package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SourceHeader is the header row of the raw fulfillment export
const SourceHeader = "Order_ID,Customer_Region,Product_Category,Order_Date,Ship_Date,Delivery_Date,Shipping_Mode,Shipping_Cost,Delivery_Status,Delivery_Days"

// SampleOrderRows covers the cases the cleaning steps care about:
//
//	ORD-001  3 day cycle, dispatched the same day
//	ORD-002  6 day cycle, dispatched the next day, delayed
//	ORD-003  15 day cycle, no ship date, no shipping cost
//	ORD-004  delivered before it was ordered
//	ORD-005  unparseable order date
var SampleOrderRows = []string{
	"ORD-001,North,Books,2024-01-01,2024-01-01,2024-01-04,Standard,5.00,On Time,3",
	"ORD-002,South,Toys,2024-01-02,2024-01-03,2024-01-08,Express,12.50,Delayed,5",
	"ORD-003,East,Books,2024-01-05,,2024-01-20,Standard,,On Time,",
	"ORD-004,North,Electronics,2024-02-10,2024-02-11,2024-02-07,Express,20.00,Delayed,2",
	"ORD-005,West,Toys,not-a-date,,2024-02-12,Standard,4.00,On Time,3",
}

// Sample expectations for SampleOrderRows under the default configuration
const (
	SampleTotalRows    = 5
	SampleCleanedRows  = 4
	SampleRejectedRows = 1
	SampleRepairedRows = 1
)

// SampleOrdersCSV returns the header and the sample rows as CSV text
func SampleOrdersCSV() string {
	return SourceHeader + "\n" + strings.Join(SampleOrderRows, "\n") + "\n"
}

// WriteOrdersCSV writes content to dir/name, creating dir, and returns the path
func WriteOrdersCSV(t *testing.T, dir, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// WriteSampleOrders writes the sample dataset to dir/orders.csv
func WriteSampleOrders(t *testing.T, dir string) string {
	t.Helper()
	return WriteOrdersCSV(t, dir, "orders.csv", SampleOrdersCSV())
}
