// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	tenantstore "github.com/dalemusser/stratacrm/internal/app/store/tenants"
	"github.com/dalemusser/stratacrm/internal/app/system/indexes"
	"github.com/dalemusser/stratacrm/internal/app/system/timeouts"
	"github.com/dalemusser/stratacrm/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), logger, "mongo ping")
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool", appCfg.MongoMinPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Services:      &Services{},
	}, nil
}

// EnsureSchema creates the tenant registry indexes, then the validators and
// indexes of every active tenant's collections. Tenants registered later are
// picked up on the next start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	tenants := tenantstore.New(db)

	if err := tenants.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tenant registry indexes: %w", err)
	}

	active, err := tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active tenants: %w", err)
	}
	ids := make([]string, 0, len(active))
	for _, t := range active {
		ids = append(ids, t.Key)
	}

	if err := validators.EnsureAll(ctx, db, ids); err != nil {
		return fmt.Errorf("collection validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db, ids); err != nil {
		return fmt.Errorf("tenant indexes: %w", err)
	}

	logger.Info("schema ensured", zap.Int("tenants", len(ids)))
	return nil
}
