// Package server provides configuration helpers that define runtime
// defaults, validation, and policy selection for the relay.
package server

import (
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

// ExclusionPolicy decides which registry members are skipped when a
// connection originates a broadcast.
type ExclusionPolicy string

const (
	// ExcludeByAddress skips every member whose remote address equals the
	// originator's. Two clients behind one address never see each other.
	ExcludeByAddress ExclusionPolicy = "address"
	// ExcludeByIdentity skips only the originating connection itself.
	ExcludeByIdentity ExclusionPolicy = "identity"
)

// PeerLookupPolicy decides what happens when the remote address of a
// freshly accepted connection cannot be resolved.
type PeerLookupPolicy string

const (
	// PeerLookupFailFast hands the error to the hub's fatal handler, which
	// terminates the process by default.
	PeerLookupFailFast PeerLookupPolicy = "fail-fast"
	// PeerLookupDrop closes only the offending connection.
	PeerLookupDrop PeerLookupPolicy = "drop"
)

// Config holds the relay configuration.
type Config struct {
	Host           string
	Port           int
	Backlog        int
	ReadBufferSize int
	ExcludeBy      ExclusionPolicy
	PeerLookup     PeerLookupPolicy
	HTTPAddr       string
	AllowedOrigins []string
}

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3000
	defaultBacklog        = 128
	defaultReadBufferSize = 64 * 1024
)

func defaultConfig() Config {
	return Config{
		Host:           defaultHost,
		Port:           defaultPort,
		Backlog:        defaultBacklog,
		ReadBufferSize: defaultReadBufferSize,
		ExcludeBy:      ExcludeByAddress,
		PeerLookup:     PeerLookupFailFast,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		log.Printf("Ignoring invalid port %d; using %d", cfg.Port, defaultPort)
		cfg.Port = defaultPort
	}

	if cfg.Backlog <= 0 {
		cfg.Backlog = defaultBacklog
	}

	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = defaultReadBufferSize
	}

	switch cfg.ExcludeBy {
	case ExcludeByAddress, ExcludeByIdentity:
	default:
		if cfg.ExcludeBy != "" {
			log.Printf("Ignoring unknown exclusion policy %q", cfg.ExcludeBy)
		}
		cfg.ExcludeBy = ExcludeByAddress
	}

	switch cfg.PeerLookup {
	case PeerLookupFailFast, PeerLookupDrop:
	default:
		if cfg.PeerLookup != "" {
			log.Printf("Ignoring unknown peer lookup policy %q", cfg.PeerLookup)
		}
		cfg.PeerLookup = PeerLookupFailFast
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// ListenAddr returns the host:port the relay binds to.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set or invalid.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if host := os.Getenv("RELAY_HOST"); host != "" {
		cfg.Host = host
	}

	if port := os.Getenv("RELAY_PORT"); port != "" {
		cfg.Port = parsePort(port, cfg.Port)
	}

	if backlog := os.Getenv("RELAY_BACKLOG"); backlog != "" {
		cfg.Backlog = parseIntValue(backlog, cfg.Backlog)
	}

	if size := os.Getenv("RELAY_READ_BUFFER"); size != "" {
		cfg.ReadBufferSize = parseIntValue(size, cfg.ReadBufferSize)
	}

	if policy := os.Getenv("RELAY_EXCLUDE_BY"); policy != "" {
		cfg.ExcludeBy = ExclusionPolicy(strings.ToLower(strings.TrimSpace(policy)))
	}

	if policy := os.Getenv("RELAY_PEER_LOOKUP"); policy != "" {
		cfg.PeerLookup = PeerLookupPolicy(strings.ToLower(strings.TrimSpace(policy)))
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("RELAY_HTTP_ADDR"))

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	cfg = sanitizeConfig(cfg)
	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parsePort(value string, defaultValue int) int {
	if port, err := strconv.Atoi(value); err == nil && port >= 0 && port <= 65535 {
		return port
	}
	log.Printf("Ignoring invalid port %q", value)
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
