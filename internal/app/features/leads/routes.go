// internal/app/features/leads/routes.go
package leads

import (
	"errors"

	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	tenantstore "github.com/dalemusser/stratacrm/internal/app/store/tenants"
	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacrm/internal/app/system/realtime"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/timeouts"
	"github.com/dalemusser/stratacrm/internal/app/system/validators"
)

// Routes registers every lead event on rt.
func Routes(rt *realtime.Router, h *Handler) {
	rt.Handle(EventGetDashboardData, timeouts.Long(), h.GetDashboardData)
	rt.Handle(EventGetLeads, timeouts.Medium(), h.GetLeads)
	rt.Handle(EventGetLeadsGrid, timeouts.Medium(), h.GetLeadsGrid)
	rt.Handle(EventGetLeadByID, timeouts.Medium(), h.GetLeadByID)
	rt.Handle(EventCreateLead, timeouts.Short(), h.CreateLead)
	rt.Handle(EventUpdateLead, timeouts.Short(), h.UpdateLead)
	rt.Handle(EventDeleteLead, timeouts.Short(), h.DeleteLead)
	rt.Handle(EventExportLeadsPDF, timeouts.Export(), h.ExportLeadsPDF)
	rt.Handle(EventExportLeadsExcel, timeouts.Export(), h.ExportLeadsExcel)
}

// ErrorCode maps lead-handler errors to reply codes.
func ErrorCode(err error) string {
	var ve *validators.Error
	switch {
	case errors.As(err, &ve):
		return realtime.CodeValidation
	case errors.Is(err, leadstore.ErrNotFound):
		return realtime.CodeNotFound
	case errors.Is(err, errNoCaller),
		errors.Is(err, tenant.ErrInvalidID),
		errors.Is(err, tenant.ErrInactive),
		errors.Is(err, tenantstore.ErrNotFound):
		return realtime.CodeForbidden
	case errors.Is(err, ratelimit.ErrLimited):
		return realtime.CodeRateLimited
	default:
		return realtime.DefaultClassify(err)
	}
}
