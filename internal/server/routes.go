// Package server wires HTTP handlers into a ServeMux via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with the health
// check, stats and WebSocket endpoints.
func SetupRoutes(hub *Hub, cfg *Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/stats", StatsHandler(hub))
	mux.HandleFunc("/ws", WebSocketHandler(hub, cfg))
	return mux
}
