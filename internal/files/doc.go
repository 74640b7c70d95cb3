// Package files locates shipment exports on disk for the command-line tools.
//
// A path given on the command line may name a file or a directory of daily
// exports; ResolveInput picks the newest readable export in the latter case:
//
//	path, err := files.ResolveInput("exports/")
//	if err != nil {
//	    return err
//	}
//	batch, err := pipeline.LoadAndRun(ctx, path)
package files
