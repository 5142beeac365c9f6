package server

import (
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"exact match", []string{"http://localhost:8080"}, "http://localhost:8080", true},
		{"case insensitive", []string{"HTTP://LocalHost:8080"}, "http://localhost:8080", true},
		{"different port", []string{"http://localhost:8080"}, "http://localhost:9090", false},
		{"missing header", []string{"http://localhost:8080"}, "", false},
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"invalid configured origin ignored", []string{"localhost"}, "http://localhost", false},
		{"nothing configured", nil, "http://localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			if got := newOriginPolicy(tt.allowed).checkOrigin(r); got != tt.want {
				t.Errorf("Expected %v for origin %q, got %v", tt.want, tt.origin, got)
			}
		})
	}
}
