package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// IdleTimeout is the keep-alive idle timeout for HTTP connections.
	// Default: 60 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps JSON request bodies.
	// Default: 1MB.
	MaxBodyBytes int64

	// Live channel

	// ReadTimeout is how long a live channel may stay silent, pongs
	// included, before it is closed.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming frame.
	// Default: 64KB.
	MaxMessageSize int64

	// AllowedOrigins lists origins, besides the server's own, allowed to
	// open the live channel. "*" allows any origin.
	AllowedOrigins []string

	// CheckOrigin overrides the origin check built from AllowedOrigins.
	CheckOrigin func(r *http.Request) bool

	// Observability

	// MetricsEnabled mounts the Prometheus endpoint and middleware.
	MetricsEnabled bool

	// MetricsNamespace is the Prometheus namespace.
	// Default: "tablequery".
	MetricsNamespace string

	// MetricsPath is where metrics are served.
	// Default: "/metrics".
	MetricsPath string

	// TracingEnabled installs the OpenTelemetry middleware.
	TracingEnabled bool

	// TracerName is the OpenTelemetry tracer name.
	// Default: "tablequery".
	TracerName string
}

// DefaultConfig returns a Config with sensible defaults.
// SECURITY: the live channel only accepts same-origin requests by default.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxBodyBytes:      1 << 20,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		MetricsEnabled:    true,
		MetricsNamespace:  "tablequery",
		MetricsPath:       "/metrics",
		TracerName:        "tablequery",
	}
}

// applyDefaults fills unset fields from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.TracerName == "" {
		c.TracerName = d.TracerName
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = AllowOrigins(c.AllowedOrigins)
	}
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
// SECURITY: Uses proper URL parsing to avoid edge cases with string manipulation.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., curl or a native client)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// AllowOrigins returns an origin check that accepts same-origin requests
// plus the listed origins, compared case-insensitively.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		if wildcard || SameOriginCheck(r) {
			return true
		}
		return allowed[strings.ToLower(r.Header.Get("Origin"))]
	}
}
