// Package server provides the HTTP server for the orchard API.
//
// It uses gorilla/mux for routing. Every request passes through the
// identity middleware (request id, client address) and the metrics
// middleware; the whole router is wrapped in gorilla/handlers access
// logging and panic recovery.
//
// # Server Setup
//
//	srv := server.NewServer(db, cfg, server.Options{Logger: log, Metrics: m, Auditor: rec})
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Error("server failed", "error", err)
//	}
//
// # Components
//
//   - Router: HTTP request router
//   - DB: Database connection
//   - TreesStore, HealthStore: persistence behind interfaces
//   - Trees: the tree aggregate service used by the handlers
package server
