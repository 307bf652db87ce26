// Package timeouts provides centralized timeout values for socket event
// handlers and background jobs.
//
// Timeouts can be configured at startup using Configure or
// ConfigureFromEnv. If not configured, the defaults are used.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and writes (get/create/update/delete lead)
//   - Medium: list and grid queries
//   - Long: the dashboard, which fans out across every tenant collection
//   - Export: building a PDF or XLSX file from a full query result
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultExport = 60 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	export = DefaultExport
)

func get(v *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *v
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for list and grid queries.
func Medium() time.Duration { return get(&medium) }

// Long returns the timeout for the dashboard aggregation.
func Long() time.Duration { return get(&long) }

// Export returns the timeout for export generation.
func Export() time.Duration { return get(&export) }

// Config holds timeout configuration values.
// Zero values are ignored (current values are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Export time.Duration
}

// Configure sets custom timeout values. Call during startup before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range []struct {
		dst *time.Duration
		v   time.Duration
	}{
		{&ping, cfg.Ping},
		{&short, cfg.Short},
		{&medium, cfg.Medium},
		{&long, cfg.Long},
		{&export, cfg.Export},
	} {
		if p.v > 0 {
			*p.dst = p.v
		}
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
	export = DefaultExport
}

// ConfigureFromEnv reads STRATACRM_TIMEOUT_{PING,SHORT,MEDIUM,LONG,EXPORT}
// as Go durations ("2s", "500ms"). Invalid or non-positive values are
// ignored. Returns the number of timeouts configured.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, e := range []struct {
		name string
		dst  *time.Duration
	}{
		{"STRATACRM_TIMEOUT_PING", &cfg.Ping},
		{"STRATACRM_TIMEOUT_SHORT", &cfg.Short},
		{"STRATACRM_TIMEOUT_MEDIUM", &cfg.Medium},
		{"STRATACRM_TIMEOUT_LONG", &cfg.Long},
		{"STRATACRM_TIMEOUT_EXPORT", &cfg.Export},
	} {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Export: export}
}

// WithTimeout creates a context with timeout and returns a cancel function
// that logs a warning if the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), log, "getDashboardData")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
