package leadqueries

import (
	"context"

	"github.com/dalemusser/stratacrm/internal/app/store/activity"
	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/system/enrich"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.uber.org/zap"
)

// DetailActivityLimit is the number of activities attached to a detail view.
const DetailActivityLimit = 10

// Detail is the single-lead view.
type Detail struct {
	LeadRow
	OwnerName  string            `json:"ownerName"`
	Activities []models.Activity `json:"activities"`
}

// GetDetail loads a lead with its recent activities and owner name. The
// activity and owner lookups are best effort; only a missing or
// unreadable lead fails the call.
func GetDetail(ctx context.Context, cols tenant.Collections, id string, logger *zap.Logger) (Detail, error) {
	lead, err := leadstore.New(cols.Leads).Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{LeadRow: ToRow(lead), Activities: []models.Activity{}}

	acts, err := activity.New(cols.Activities).ForLead(ctx, lead.Key(), DetailActivityLimit)
	if err != nil {
		logger.Warn("lead detail: activities lookup failed",
			zap.String("tenant", cols.TenantID), zap.String("lead", id), zap.Error(err))
	} else {
		d.Activities = acts
	}

	if owner := models.RefKey(lead.Owner); owner != "" {
		names, err := enrich.Names(ctx, cols.Employees, []string{owner}, enrich.EmployeeName)
		if err != nil {
			logger.Warn("lead detail: owner lookup failed",
				zap.String("tenant", cols.TenantID), zap.String("owner", owner), zap.Error(err))
		}
		d.OwnerName = names[owner]
	}
	return d, nil
}
