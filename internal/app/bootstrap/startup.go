// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/features/leads"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/dashboardqueries"
	tenantstore "github.com/dalemusser/stratacrm/internal/app/store/tenants"
	"github.com/dalemusser/stratacrm/internal/app/system/auth"
	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacrm/internal/app/system/realtime"
	"github.com/dalemusser/stratacrm/internal/app/system/tasks"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the dashboard, export and socket services, then starts the hub and the
// background scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errors.New("startup: services not allocated")
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("operation timeouts overridden from environment",
			zap.Int("count", n),
			zap.Any("timeouts", timeouts.Current()))
	}

	loc, err := appCfg.Location()
	if err != nil {
		return err
	}

	resolver := tenant.NewMongoResolver(deps.MongoDatabase, tenantstore.New(deps.MongoDatabase))

	dashCfg := dashboardqueries.DefaultConfig(loc)
	dashCfg.Concurrency = appCfg.DashboardConcurrency
	dash := dashboardqueries.New(resolver, dashCfg, logger)

	exp, err := exports.New(resolver, exports.Config{
		Dir:       appCfg.ExportDir,
		BaseURL:   appCfg.FrontendBaseURL,
		Retention: appCfg.ExportRetention,
		Location:  loc,
	}, logger)
	if err != nil {
		return err
	}

	codec, err := auth.NewCodec(appCfg.HandshakeKey, appCfg.HandshakeTTL, logger)
	if err != nil {
		return err
	}

	var exportLimit *ratelimit.Limiter
	if appCfg.ExportLimit > 0 {
		exportLimit = ratelimit.New(appCfg.ExportLimit, time.Minute)
	}

	router := realtime.NewRouter(leads.ErrorCode, logger)
	hub := realtime.NewHub(router, codec, realtime.Options{AllowedOrigins: appCfg.AllowedOrigins}, logger)
	handler := leads.NewHandler(resolver, dash, exp, hub, logger)
	if exportLimit != nil {
		handler.ExportLimit = exportLimit
	}
	leads.Routes(router, handler)
	go hub.Run()

	sched := tasks.NewScheduler(logger)
	sweep := tasks.ExportSweepJob(exp, appCfg.ExportRetention, appCfg.ExportSweepSchedule, logger)
	if err := sched.Add(sweep); err != nil {
		return err
	}
	// Files left by a previous process have no retention timer.
	if err := sched.Trigger(sweep.Name); err != nil {
		logger.Warn("initial export sweep failed", zap.Error(err))
	}
	sched.Start()

	*deps.Services = Services{
		Tenants:   resolver,
		Dashboard: dash,
		Exports:   exp,
		Hub:       hub,
		Scheduler: sched,

		ExportLimit: exportLimit,
	}

	logger.Info("stratacrm services started",
		zap.String("time_zone", loc.String()),
		zap.String("export_dir", exp.Dir()),
		zap.Strings("events", router.Events()))
	return nil
}
