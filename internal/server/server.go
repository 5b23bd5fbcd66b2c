/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
assistant services and persistence gateway into the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"FitPulse_V0.1/config"
	"FitPulse_V0.1/internal/assistant"
	"FitPulse_V0.1/internal/database"
)

// Server holds the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the persistence gateway, used directly for
	// health checks and the overview aggregate.
	db database.Service

	chat     *assistant.Chat
	analyzer *assistant.Analyzer
	planner  *assistant.Planner

	// jwtSecret verifies the bearer tokens that scope requests to an owner.
	jwtSecret []byte
}

// NewServer wires the dependencies into a configured *http.Server with
// production-ready network timeouts.
func NewServer(cfg *config.Config, db database.Service, chat *assistant.Chat, analyzer *assistant.Analyzer, planner *assistant.Planner) *http.Server {
	app := &Server{
		port:      cfg.Server.Port,
		db:        db,
		chat:      chat,
		analyzer:  analyzer,
		planner:   planner,
		jwtSecret: []byte(cfg.Auth.JWTSecret),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,      // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second, // Maximum duration for reading the entire request.
		WriteTimeout: 60 * time.Second, // Generous: a retried AI call can take a while.
	}
}
