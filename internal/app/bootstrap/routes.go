// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	healthfeature "github.com/dalemusser/stratacrm/internal/app/features/health"
	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The lead API lives entirely on the websocket at
// /ws; plain HTTP serves only the health check and generated export files.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Hub == nil || svc.Exports == nil {
		return nil, errors.New("build handler: services not started")
	}

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, svc.Exports.Dir(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Socket handshake and event traffic
	if appCfg.HandshakeLimit > 0 {
		r.With(ratelimit.ByIP(appCfg.HandshakeLimit, logger)).Get("/ws", svc.Hub.ServeWS)
	} else {
		r.Get("/ws", svc.Hub.ServeWS)
	}

	// Generated export files, until their retention expires
	prefix := "/" + exports.DefaultPublicPath
	r.Handle(prefix+"/*", fileserver.Handler(prefix, svc.Exports.Dir()))

	return r, nil
}
