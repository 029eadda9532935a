package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QualityIssue is a stable code describing why a row could not be used as-is.
// The empty value means the row is clean.
type QualityIssue string

const (
	IssueNone                  QualityIssue = ""
	IssueMissingField          QualityIssue = "missing_field"
	IssueMalformedOrderDate    QualityIssue = "malformed_order_date"
	IssueMalformedDeliveryDate QualityIssue = "malformed_delivery_date"
	IssueDeliveryBeforeOrder   QualityIssue = "delivery_before_order"

	// IssueTimelineRepaired marks a row whose inverted timeline was rebuilt from the
	// dataset median cycle. The row stays usable.
	IssueTimelineRepaired QualityIssue = "timeline_repaired"
)

// Blocking reports whether the issue prevents the row from entering the KPI set.
func (q QualityIssue) Blocking() bool {
	return q != IssueNone && q != IssueTimelineRepaired
}

// RawOrder holds one source row exactly as read, after column-name normalization.
type RawOrder struct {
	RowNumber       int    `json:"-"`
	OrderID         string `json:"order_id" validate:"required"`
	OrderDate       string `json:"order_date" validate:"required"`
	ShipDate        string `json:"ship_date"`
	DeliveryDate    string `json:"delivery_date" validate:"required"`
	DeliveryDays    string `json:"delivery_days"`
	DeliveryStatus  string `json:"delivery_status" validate:"required"`
	Region          string `json:"region"`
	ShippingMode    string `json:"shipping_mode"`
	ProductCategory string `json:"product_category"`
	ShippingCost    string `json:"shipping_cost"`
}

// Order is the enriched record. It is created by the loader, mutated in place by
// every pipeline step, and only read by the exporter.
type Order struct {
	RowNumber int
	OrderID   string

	OrderDate    time.Time
	ShipDate     time.Time
	DeliveryDate time.Time
	DeliveryDays int

	DeliveryStatus  string
	Region          string
	ShippingMode    string
	ProductCategory string
	ShippingCost    decimal.NullDecimal

	OnTimeFlag int
	DelayFlag  int

	// TimelineValid is set once ship_date and delivery_days have been derived.
	TimelineValid bool
	QualityIssue  QualityIssue
	IssueDetail   string

	// Raw keeps the untrusted source values (ship_date, delivery_days) for diagnostics.
	Raw RawOrder
}

// Flag records a quality issue unless a blocking one is already present.
func (o *Order) Flag(issue QualityIssue, detail string) {
	if o.QualityIssue.Blocking() {
		return
	}
	o.QualityIssue = issue
	o.IssueDetail = detail
}

// Usable reports whether the order can go through the timeline steps.
func (o *Order) Usable() bool {
	return !o.QualityIssue.Blocking()
}

// OrderMonth returns the YYYY-MM bucket of the order date, or "" when unknown.
func (o *Order) OrderMonth() string {
	if o.OrderDate.IsZero() {
		return ""
	}
	return o.OrderDate.Format("2006-01")
}

// Rejection describes a row removed from the output table.
type Rejection struct {
	RowNumber int          `json:"row_number"`
	OrderID   string       `json:"order_id"`
	Issue     QualityIssue `json:"issue"`
	Detail    string       `json:"detail,omitempty"`
}

// Dataset is the unit of work passed between pipeline steps.
type Dataset struct {
	SourcePath string
	Columns    []string
	Orders     []Order
	Rejections []Rejection
}

// Len returns the number of orders currently in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Orders)
}
