// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown closes socket connections, stops background jobs, cancels pending
// export removals and disconnects MongoDB. Every step runs; the errors are
// joined.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error

	if svc := deps.Services; svc != nil {
		if svc.Hub != nil {
			logger.Info("closing websocket connections")
			if err := svc.Hub.Stop(ctx); err != nil {
				logger.Error("hub stop failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
		if svc.Scheduler != nil {
			if err := svc.Scheduler.Stop(ctx); err != nil {
				logger.Error("scheduler stop failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
		if svc.Exports != nil {
			svc.Exports.Stop()
		}
		if svc.ExportLimit != nil {
			svc.ExportLimit.Stop()
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting StrataCRM MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
