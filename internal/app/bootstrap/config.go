// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/system/auth"
	"github.com/dalemusser/stratacrm/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for StrataCRM.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, handshake_key, etc.
//   - Environment variables: STRATACRM_MONGO_URI, STRATACRM_HANDSHAKE_KEY, etc.
//   - Command-line flags: --mongo_uri, --handshake_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratacrm", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "handshake_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Signing key for socket handshake tokens (must be strong in production)"},
	{Name: "handshake_ttl", Default: "12h", Desc: "Handshake token lifetime"},
	{Name: "allowed_origins", Default: "", Desc: "Comma-separated websocket origins (blank accepts any)"},
	{Name: "handshake_limit", Default: 60, Desc: "Websocket upgrades allowed per client IP per minute (0 disables)"},

	{Name: "frontend_base_url", Default: "http://localhost:3000", Desc: "Public origin used in export download links"},
	{Name: "export_dir", Default: exports.DefaultDir, Desc: "Directory for generated export files"},
	{Name: "export_retention", Default: "1h", Desc: "How long an export file is kept (e.g., 30m, 1h)"},
	{Name: "export_sweep_schedule", Default: tasks.DefaultExportSweepSchedule, Desc: "Cron schedule for removing stale export files"},

	{Name: "export_limit", Default: 10, Desc: "Exports allowed per user per minute (0 disables)"},

	{Name: "time_zone", Default: "Local", Desc: "IANA time zone for dashboard calendar windows"},
	{Name: "dashboard_concurrency", Default: 4, Desc: "Dashboard metric queries run in parallel per request"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults,
// reading WAFFLE_* for core and STRATACRM_* for app keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STRATACRM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		HandshakeKey:   appValues.String("handshake_key"),
		HandshakeTTL:   appValues.Duration("handshake_ttl", auth.DefaultTokenTTL),
		AllowedOrigins: splitList(appValues.String("allowed_origins")),
		HandshakeLimit: appValues.Int("handshake_limit"),

		FrontendBaseURL:     appValues.String("frontend_base_url"),
		ExportDir:           appValues.String("export_dir"),
		ExportRetention:     appValues.Duration("export_retention", exports.DefaultRetention),
		ExportSweepSchedule: appValues.String("export_sweep_schedule"),
		ExportLimit:         appValues.Int("export_limit"),

		TimeZone:             appValues.String("time_zone"),
		DashboardConcurrency: appValues.Int("dashboard_concurrency"),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if appCfg.HandshakeKey == "" {
		return errors.New("handshake_key is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.HandshakeKey, "dev-only") {
		return errors.New("handshake_key must be changed from the development default in prod")
	}
	if appCfg.HandshakeTTL <= 0 {
		return errors.New("handshake_ttl must be positive")
	}

	if appCfg.HandshakeLimit < 0 {
		return errors.New("handshake_limit must not be negative")
	}

	if strings.TrimSpace(appCfg.ExportDir) == "" {
		return errors.New("export_dir is required")
	}
	if appCfg.ExportRetention <= 0 {
		return errors.New("export_retention must be positive")
	}
	if appCfg.ExportLimit < 0 {
		return errors.New("export_limit must not be negative")
	}
	if _, err := cron.ParseStandard(appCfg.ExportSweepSchedule); err != nil {
		return fmt.Errorf("invalid export_sweep_schedule %q: %w", appCfg.ExportSweepSchedule, err)
	}

	if _, err := appCfg.Location(); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", appCfg.TimeZone, err)
	}
	if appCfg.DashboardConcurrency < 1 {
		return fmt.Errorf("dashboard_concurrency must be at least 1, got %d", appCfg.DashboardConcurrency)
	}

	return nil
}
