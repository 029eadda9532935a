// Package dataprocessing implements the cleaning and KPI stages of the order
// fulfillment pipeline. Every stage works in place on a *domain.Dataset and
// returns a small stats struct that the caller logs and records as metrics.
//
// # Architecture
//
// The stages run strictly in this order:
//
//  1. Loader: reads CSV or XLSX, normalizes column names, builds raw orders
//  2. DateNormalizer: parses order, ship and delivery dates to UTC days
//  3. DispatchModeler: rebuilds ship_date from the total order cycle
//  4. DurationRecalculator: recomputes delivery_days from ship and delivery dates
//  5. QualityGate: drops or flags rows that could not be cleaned
//  6. KPIEngine: derives on-time/delay flags and aggregates them with gota
//
// # Usage
//
//	ds, _, err := dataprocessing.NewLoader(logger, "").Load(ctx, "orders.csv")
//	if err != nil {
//	    return err
//	}
//	dataprocessing.NewDateNormalizer(logger).Normalize(ctx, ds)
//	dataprocessing.NewDispatchModeler(rule, true, logger).Model(ctx, ds)
//	dataprocessing.NewDurationRecalculator(logger).Recalculate(ctx, ds)
//
// Row-level problems never fail a stage. They are recorded on the order as a
// domain.QualityIssue and resolved by the QualityGate policy. Only I/O and
// schema problems (a missing required column) are returned as errors.
package dataprocessing
