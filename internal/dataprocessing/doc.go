// Package dataprocessing turns uploaded shipment spreadsheets into clean, immutable
// batches and derives the analytics tables served by the rest of the application.
//
// # Architecture
//
// Data flows strictly forward through these stages; every stage returns a new
// derived table and never mutates its input:
//
//  1. Loader: reads an .xlsx workbook or .csv file into a RawTable
//  2. Schema validator: rejects a batch missing any required column
//  3. Normalizer: parses dates and volumes, canonicalizes carriers, derives regulation flags
//  4. Engine: aggregates by carrier, product or destination over a date selection
//  5. Comparator: joins two periods and computes deltas
//  6. Insight generator: extracts leaders, trailers and movers for presentation
//
// # Usage
//
//	pipeline, err := dataprocessing.NewPipeline(dataprocessing.DefaultConfig(), logger, nil)
//	if err != nil {
//	    return err
//	}
//	batch, err := pipeline.LoadAndRun(ctx, "despachos.xlsx")
//	if err != nil {
//	    return err // *SchemaError lists every missing column
//	}
//	rows, err := pipeline.Engine().Aggregate(batch, dataprocessing.OnDay(day), domain.DimensionCarrier, dataprocessing.MetricAll)
//
// # Data quality
//
// Bad data is reported, not fatal: rows with unparseable dates are dropped,
// unparseable volumes become zero, and each kind of problem yields a single
// aggregated domain.Warning carrying the affected row count. Only schema and
// I/O failures are returned as errors.
package dataprocessing
