package leadqueries

import (
	"context"

	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/stage"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Grid shortcuts accepted in GridFilter.Sort.
const (
	ShortcutRecentlyAdded = "recentlyAdded"
	ShortcutAscending     = "ascending"
	ShortcutDescending    = "descending"
	ShortcutLastMonth     = "lastMonth"
	ShortcutLast7Days     = "last7Days"
)

// GridFilter is the kanban request.
type GridFilter struct {
	Search     string `json:"search"`
	Stage      string `json:"stage"`
	DateFilter string `json:"dateFilter"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Sort       string `json:"sort"`
}

// GridColumn is one kanban column with its running totals.
type GridColumn struct {
	Stage string    `json:"stage"`
	Count int       `json:"count"`
	Value float64   `json:"value"`
	Leads []LeadRow `json:"leads"`
}

// GridResult holds the columns in display order.
type GridResult struct {
	Columns []GridColumn `json:"columns"`
	Total   int          `json:"total"`
}

// BuildGridQuery returns the filter and sort for a grid request. The
// lastMonth and last7Days shortcuts replace any date filter with a
// trailing window ending now.
func BuildGridQuery(f GridFilter, dates daterange.Resolver) (bson.M, bson.D) {
	filter := BuildListFilter(ListFilter{
		Search:     f.Search,
		Stage:      f.Stage,
		DateFilter: f.DateFilter,
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
	}, dates)
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

	switch f.Sort {
	case ShortcutAscending:
		sort = bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	case ShortcutDescending:
		sort = bson.D{{Key: "name", Value: -1}, {Key: "_id", Value: -1}}
	case ShortcutLastMonth:
		filter["createdAt"] = dates.Trailing(1, 0).Filter()
	case ShortcutLast7Days:
		filter["createdAt"] = dates.Trailing(0, 7).Filter()
	}
	return filter, sort
}

// BucketLeads distributes leads into the taxonomy's grid columns,
// preserving input order inside each column. Every column is present even
// when empty.
func BucketLeads(leads []models.Lead, tax stage.Taxonomy) GridResult {
	cols := make([]GridColumn, len(tax.Grid))
	index := make(map[string]int, len(tax.Grid))
	for i, name := range tax.Grid {
		cols[i] = GridColumn{Stage: name, Leads: []LeadRow{}}
		index[name] = i
	}

	for _, l := range leads {
		i, ok := index[tax.GridColumn(l.Stage)]
		if !ok {
			continue
		}
		cols[i].Count++
		cols[i].Value += l.Value.Float64()
		cols[i].Leads = append(cols[i].Leads, ToRow(l))
	}
	return GridResult{Columns: cols, Total: len(leads)}
}

// Grid loads the matching leads and buckets them.
func Grid(ctx context.Context, store *leadstore.Store, dates daterange.Resolver, tax stage.Taxonomy, f GridFilter) (GridResult, error) {
	filter, sort := BuildGridQuery(f, dates)
	leads, err := store.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return GridResult{}, err
	}
	return BucketLeads(leads, tax), nil
}
