package server

import (
	"sync/atomic"
	"time"
)

// Stats tracks relay-level counters. All fields are updated atomically so
// the HTTP handlers can read them without going through the hub loop.
type Stats struct {
	totalConnections atomic.Int64
	activeConns      atomic.Int64
	messagesRelayed  atomic.Int64
	writesQueued     atomic.Int64
	writesFailed     atomic.Int64
	bytesWritten     atomic.Int64
	startedAt        time.Time
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalConnections int64   `json:"total_connections"`
	ActiveConns      int64   `json:"active_connections"`
	MessagesRelayed  int64   `json:"messages_relayed"`
	WritesQueued     int64   `json:"writes_queued"`
	WritesFailed     int64   `json:"writes_failed"`
	BytesWritten     int64   `json:"bytes_written"`
	UptimeSec        float64 `json:"uptime_sec"`

	Connections []ConnectionInfo `json:"connections,omitempty"`
}

// ConnectionInfo identifies one registered connection.
type ConnectionInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

func newStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) addConnection() { s.totalConnections.Add(1); s.activeConns.Add(1) }
func (s *Stats) addRelayed()    { s.messagesRelayed.Add(1) }
func (s *Stats) addQueued()     { s.writesQueued.Add(1) }
func (s *Stats) addFailed()     { s.writesFailed.Add(1) }

func (s *Stats) addWritten(n int) { s.bytesWritten.Add(int64(n)) }

func (s *Stats) removeConnection() { s.activeConns.Add(-1) }

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections: s.totalConnections.Load(),
		ActiveConns:      s.activeConns.Load(),
		MessagesRelayed:  s.messagesRelayed.Load(),
		WritesQueued:     s.writesQueued.Load(),
		WritesFailed:     s.writesFailed.Load(),
		BytesWritten:     s.bytesWritten.Load(),
		UptimeSec:        time.Since(s.startedAt).Seconds(),
	}
}
