// internal/app/features/leads/events.go
package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/store/activity"
	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/dashboardqueries"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacrm/internal/app/system/realtime"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/validators"
	"go.uber.org/zap"
)

// Event names.
const (
	EventGetDashboardData = "getDashboardData"
	EventGetLeads         = "getLeads"
	EventGetLeadsGrid     = "getLeadsGrid"
	EventGetLeadByID      = "getLeadById"
	EventCreateLead       = "createLead"
	EventUpdateLead       = "updateLead"
	EventDeleteLead       = "deleteLead"
	EventExportLeadsPDF   = "exportLeadsPDF"
	EventExportLeadsExcel = "exportLeadsExcel"
)

type idRequest struct {
	ID string `json:"id"`
}

func (r idRequest) id() (string, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return "", validators.Required("id")
	}
	return id, nil
}

// GetDashboardData handles getDashboardData.
func (h *Handler) GetDashboardData(ctx context.Context, data json.RawMessage) (any, error) {
	f, err := realtime.Bind[dashboardqueries.Filters](data)
	if err != nil {
		return nil, err
	}
	info, ok := tenant.FromContext(ctx)
	if !ok || info.TenantID == "" {
		return nil, errNoCaller
	}
	return h.Dashboard.GetDashboardData(ctx, info.TenantID, f)
}

// GetLeads handles getLeads.
func (h *Handler) GetLeads(ctx context.Context, data json.RawMessage) (any, error) {
	f, err := realtime.Bind[leadqueries.ListFilter](data)
	if err != nil {
		return nil, err
	}
	_, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	return leadqueries.List(ctx, leadstore.New(cols.Leads), h.dates(), f)
}

// GetLeadsGrid handles getLeadsGrid.
func (h *Handler) GetLeadsGrid(ctx context.Context, data json.RawMessage) (any, error) {
	f, err := realtime.Bind[leadqueries.GridFilter](data)
	if err != nil {
		return nil, err
	}
	_, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	return leadqueries.Grid(ctx, leadstore.New(cols.Leads), h.dates(), h.Stages, f)
}

// GetLeadByID handles getLeadById.
func (h *Handler) GetLeadByID(ctx context.Context, data json.RawMessage) (any, error) {
	req, err := realtime.Bind[idRequest](data)
	if err != nil {
		return nil, err
	}
	id, err := req.id()
	if err != nil {
		return nil, err
	}
	_, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	return leadqueries.GetDetail(ctx, cols, id, h.Log)
}

// CreateLead handles createLead.
func (h *Handler) CreateLead(ctx context.Context, data json.RawMessage) (any, error) {
	in, err := realtime.Bind[leadstore.CreateInput](data)
	if err != nil {
		return nil, err
	}
	info, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}

	lead, err := leadstore.New(cols.Leads).Create(ctx, info.TenantID, in)
	if err != nil {
		return nil, err
	}

	h.recordActivity(ctx, cols, info, lead.ID, activity.EventLeadCreated,
		fmt.Sprintf("Lead %q created", lead.Name))
	h.publish(info.TenantID, "created", lead.Key())
	return leadqueries.ToRow(lead), nil
}

// UpdateLead handles updateLead. The payload is {id, data: {...}}; a flat
// {id, field: value, ...} object is accepted too.
func (h *Handler) UpdateLead(ctx context.Context, data json.RawMessage) (any, error) {
	raw, err := realtime.Bind[map[string]any](data)
	if err != nil {
		return nil, err
	}
	id, _ := raw["id"].(string)
	if id = strings.TrimSpace(id); id == "" {
		return nil, validators.Required("id")
	}
	patch := raw
	if nested, ok := raw["data"].(map[string]any); ok {
		patch = nested
	}

	info, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}

	lead, err := leadstore.New(cols.Leads).Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	h.recordActivity(ctx, cols, info, lead.ID, activity.EventLeadUpdated,
		fmt.Sprintf("Lead %q updated", lead.Name))
	h.publish(info.TenantID, "updated", lead.Key())
	return leadqueries.ToRow(lead), nil
}

// DeleteLead handles deleteLead.
func (h *Handler) DeleteLead(ctx context.Context, data json.RawMessage) (any, error) {
	req, err := realtime.Bind[idRequest](data)
	if err != nil {
		return nil, err
	}
	id, err := req.id()
	if err != nil {
		return nil, err
	}
	info, cols, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}

	if err := leadstore.New(cols.Leads).Delete(ctx, id); err != nil {
		return nil, err
	}

	h.recordActivity(ctx, cols, info, id, activity.EventLeadDeleted, "Lead deleted")
	h.publish(info.TenantID, "deleted", id)
	return idRequest{ID: id}, nil
}

// ExportLeadsPDF handles exportLeadsPDF.
func (h *Handler) ExportLeadsPDF(ctx context.Context, data json.RawMessage) (any, error) {
	return h.export(ctx, data, h.Exports.ExportPDF)
}

// ExportLeadsExcel handles exportLeadsExcel.
func (h *Handler) ExportLeadsExcel(ctx context.Context, data json.RawMessage) (any, error) {
	return h.export(ctx, data, h.Exports.ExportExcel)
}

type exportFunc func(ctx context.Context, tenantID, userID string, f leadqueries.ExportFilter) (exports.Result, error)

func (h *Handler) export(ctx context.Context, data json.RawMessage, run exportFunc) (any, error) {
	f, err := realtime.Bind[leadqueries.ExportFilter](data)
	if err != nil {
		return nil, err
	}
	info, ok := tenant.FromContext(ctx)
	if !ok || info.TenantID == "" {
		return nil, errNoCaller
	}
	if key := info.TenantID + "/" + info.UserID; h.ExportLimit != nil && !h.ExportLimit.Allow(key) {
		return nil, &ratelimit.LimitedError{Wait: h.ExportLimit.RetryAfter(key)}
	}
	return run(ctx, info.TenantID, info.UserID, f)
}

// recordActivity appends to the lead's timeline. Failures are logged and
// never fail the mutation.
func (h *Handler) recordActivity(ctx context.Context, cols tenant.Collections, info tenant.Info, leadID any, event, description string) {
	if cols.Activities == nil {
		return
	}
	if err := activity.New(cols.Activities).Record(ctx, leadID, event, description, info.UserID); err != nil {
		h.Log.Warn("record lead activity failed",
			zap.String("tenant", info.TenantID),
			zap.String("event", event),
			zap.Error(err))
	}
}
