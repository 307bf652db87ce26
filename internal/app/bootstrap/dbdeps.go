// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/dashboardqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacrm/internal/app/system/realtime"
	"github.com/dalemusser/stratacrm/internal/app/system/tasks"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is allocated by ConnectDB and filled in by Startup so that
	// BuildHandler and Shutdown see the same instances.
	Services *Services
}

// Services are the long-lived components built at startup.
type Services struct {
	Tenants   tenant.Resolver
	Dashboard *dashboardqueries.Aggregator
	Exports   *exports.Service
	Hub       *realtime.Hub
	Scheduler *tasks.Scheduler

	// ExportLimit is nil when export_limit is 0.
	ExportLimit *ratelimit.Limiter
}
