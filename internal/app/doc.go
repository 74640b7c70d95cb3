// Package app wires the haulpulse HTTP service together and runs it.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the config file and HAUL_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Build the normalization pipeline from the pipeline settings
//	4. Create the session store and the analytics and health services
//	5. Set up the chi router, middleware and handlers
//	6. Serve until interrupted, then shut down gracefully
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns once SIGINT or SIGTERM arrives and the server has drained.
package app
