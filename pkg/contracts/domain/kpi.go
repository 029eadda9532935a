package domain

import (
	"github.com/shopspring/decimal"
)

// GroupMetric holds the per-dimension aggregates of the KPI engine.
type GroupMetric struct {
	Key             string  `json:"key"`
	Orders          int     `json:"orders"`
	MeasuredOrders  int     `json:"measured_orders"`
	AvgDeliveryDays float64 `json:"avg_delivery_days"`
	OnTimeRate      float64 `json:"on_time_rate"`
	DelayRate       float64 `json:"delay_rate"`
}

// CountMetric is a simple frequency count.
type CountMetric struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CostMetric is the average shipping cost for one shipping mode.
type CostMetric struct {
	Key             string          `json:"key"`
	PricedOrders    int             `json:"priced_orders"`
	AvgShippingCost decimal.Decimal `json:"avg_shipping_cost"`
}

// KPIReport is the dataset-level output of the KPI engine.
type KPIReport struct {
	TotalOrders      int     `json:"total_orders"`
	MeasuredOrders   int     `json:"measured_orders"`
	OverallOnTimePct float64 `json:"overall_on_time_pct"`
	AvgDeliveryDays  float64 `json:"avg_delivery_days"`

	ByRegion       []GroupMetric `json:"by_region"`
	ByShippingMode []GroupMetric `json:"by_shipping_mode"`
	ByMonth        []GroupMetric `json:"by_month"`

	// DelaysByShippingMode is ByShippingMode ordered by delay rate, highest first.
	DelaysByShippingMode []GroupMetric `json:"delays_by_shipping_mode"`
	OrdersByCategory     []CountMetric `json:"orders_by_category"`
	DeliveriesByRegion   []CountMetric `json:"deliveries_by_region"`
	DeliveriesOverTime   []CountMetric `json:"deliveries_over_time"`
	ShippingCostByMode   []CostMetric  `json:"shipping_cost_by_mode"`
}
