// Package server exposes HTTP handlers, including WebSocket upgrades,
// health checks and the stats endpoint.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades GET requests to WebSocket and hands the
// connection to hub. WebSocket clients share the room with TCP clients.
func WebSocketHandler(hub *Hub, cfg *Config) http.HandlerFunc {
	var origins []string
	if cfg != nil {
		origins = cfg.AllowedOrigins
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginPolicy(origins).checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		if err := hub.Accept(NewWebSocketTransport(conn, r.RemoteAddr)); err != nil {
			log.Printf("Rejecting WebSocket client %s: %v", r.RemoteAddr, err)
			_ = conn.Close()
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "chat relay is running!")
}

// StatsHandler writes the hub's counters and the registered connections as JSON.
func StatsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshot := hub.Stats()
		if conns, err := hub.Connections(); err == nil {
			snapshot.Connections = conns
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Printf("Error writing stats response: %v", err)
		}
	}
}
