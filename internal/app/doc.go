// Package app wires the dataset service, the HTTP API, the WebSocket feed and
// the optional Postgres mirror into one process and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from .env, the environment and an optional YAML file
//  2. Initialize logging and OpenTelemetry
//  3. Build the loader, the data service, the hub and the animator
//  4. Open the store when a database URL is configured
//  5. Mount middleware and routes, then create the HTTP server
//
// The first dataset is loaded in the background after Start. Until it is in,
// data routes answer 503 and readiness reports not_ready.
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. In-flight requests get the configured
// shutdown timeout, WebSocket clients are disconnected, the database pool is
// closed and telemetry is flushed.
package app
