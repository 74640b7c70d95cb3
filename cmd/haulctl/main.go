// Command haulctl runs the shipment analytics offline against a local
// workbook or CSV file and prints the result as JSON, CSV or XLSX.
//
//	haulctl summary despachos.xlsx
//	haulctl day despachos.xlsx --date 2024-01-31 --format csv
//	haulctl compare despachos.xlsx --p1-from 2024-01-01 --p1-to 2024-01-07 \
//	    --p2-from 2024-01-08 --p2-to 2024-01-14 --dimension carrier
//	haulctl trend despachos.csv --from 2024-01-01 -o trend.xlsx --format xlsx
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
