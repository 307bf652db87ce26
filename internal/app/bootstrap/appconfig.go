// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side: ports, TLS, logging level and CORS.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database holding every tenant's collections
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Socket handshake
	HandshakeKey   string        // securecookie hash key for handshake tokens
	HandshakeTTL   time.Duration // token lifetime
	AllowedOrigins []string      // accepted websocket Origin headers; empty accepts any
	HandshakeLimit int           // websocket upgrades per client IP per minute; 0 disables

	// Exports
	FrontendBaseURL     string        // public origin used to build download links
	ExportLimit         int           // exports per user per minute; 0 disables
	ExportDir           string        // where generated files are written
	ExportRetention     time.Duration // lifetime of a generated file
	ExportSweepSchedule string        // cron spec for the leftover-file sweep

	// Dashboard
	TimeZone             string // IANA zone for calendar windows; blank means server local
	DashboardConcurrency int    // metric queries in flight per request
}

// Location resolves TimeZone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}
