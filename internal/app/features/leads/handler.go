// internal/app/features/leads/handler.go
package leads

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/dashboardqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/stage"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.uber.org/zap"
)

// EventLeadsChanged is pushed to a tenant's other connections after a
// successful create, update or delete.
const EventLeadsChanged = "leadsChanged"

var errNoCaller = errors.New("no caller identity on connection")

// Publisher fans an event out to a tenant's connections.
type Publisher interface {
	Publish(tenantID, event string, data any)
}

// Limiter throttles work per key. RetryAfter reports how long a rejected
// key must wait.
type Limiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// Handler owns the lead event handlers. It is a thin struct over the
// tenant resolver and the query services, constructed once in bootstrap.
type Handler struct {
	Tenants   tenant.Resolver
	Dashboard *dashboardqueries.Aggregator
	Exports   *exports.Service
	Publisher Publisher
	Stages    stage.Taxonomy
	Location  *time.Location
	Log       *zap.Logger

	// ExportLimit throttles exports per tenant user; nil means unlimited.
	ExportLimit Limiter

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewHandler constructs a lead Handler. pub may be nil.
func NewHandler(tenants tenant.Resolver, dash *dashboardqueries.Aggregator, exp *exports.Service, pub Publisher, logger *zap.Logger) *Handler {
	cfg := dash.Config()
	return &Handler{
		Tenants:   tenants,
		Dashboard: dash,
		Exports:   exp,
		Publisher: pub,
		Stages:    cfg.Stages,
		Location:  cfg.Location,
		Log:       logger,
		Now:       time.Now,
	}
}

func (h *Handler) dates() daterange.Resolver {
	return daterange.Resolver{Now: h.Now, Location: h.Location}
}

// caller returns the connection identity and that tenant's collections.
func (h *Handler) caller(ctx context.Context) (tenant.Info, tenant.Collections, error) {
	info, ok := tenant.FromContext(ctx)
	if !ok || info.TenantID == "" {
		return tenant.Info{}, tenant.Collections{}, errNoCaller
	}
	cols, err := h.Tenants.Resolve(ctx, info.TenantID)
	if err != nil {
		return info, tenant.Collections{}, err
	}
	return info, cols, nil
}

func (h *Handler) publish(tenantID, action, id string) {
	if h.Publisher == nil {
		return
	}
	h.Publisher.Publish(tenantID, EventLeadsChanged, map[string]string{"action": action, "id": id})
}
