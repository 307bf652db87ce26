package leadqueries

import (
	"strings"

	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"go.mongodb.org/mongo-driver/bson"
)

// ExportFilter is the filter set an export is generated from.
type ExportFilter struct {
	Search     string `json:"search"`
	Stage      string `json:"stage"`
	DateFilter string `json:"dateFilter"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Sort       string `json:"sort"`
}

var exportSearchFields = []string{"name", "company", "email"}

// BuildExportFilter is the list filter narrowed to the tenant's own,
// non-deleted leads. The tenant and soft-delete clauses are always
// present and cannot be overridden by f.
func BuildExportFilter(tenantID string, f ExportFilter, dates daterange.Resolver) bson.M {
	filter := bson.M{}
	if rng := dates.Resolve(f.DateFilter, &daterange.Explicit{Start: f.StartDate, End: f.EndDate}); rng != nil {
		filter["createdAt"] = rng.Filter()
	}
	if stageSelected(f.Stage) {
		filter["stage"] = strings.TrimSpace(f.Stage)
	}
	if or := SearchClause(f.Search, exportSearchFields); or != nil {
		filter["$or"] = or
	}
	filter["companyId"] = tenantID
	filter["isDeleted"] = bson.M{"$ne": true}
	return filter
}
