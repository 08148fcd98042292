// Package app wires the ridership web server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, RIDERSHIP_* variables)
//	2. Initialize logging and OpenTelemetry
//	3. Build the ingestor, dataset cache and session store
//	4. Build the ridership and health services
//	5. Mount the HTTP API, /ws and /metrics on a chi router
//	6. Serve until SIGINT or SIGTERM
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Stop closes every websocket client first, since hijacked connections are
// invisible to http.Server.Shutdown, then drains in-flight requests and
// flushes telemetry. Initialization errors are returned; the package never
// calls os.Exit.
package app
