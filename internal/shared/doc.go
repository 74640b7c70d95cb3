// Package shared holds code used by more than one layer without belonging to
// any of them. Today that is testutil: shipment fixtures and a buffered slog
// handler for asserting on log output.
package shared
