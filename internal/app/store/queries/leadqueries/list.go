package leadqueries

import (
	"context"
	"regexp"
	"strings"

	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFilter is the leads-table request.
type ListFilter struct {
	Search     string `json:"search"`
	Stage      string `json:"stage"`
	DateFilter string `json:"dateFilter"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Sort       string `json:"sort"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

// ListResult is one page of the leads table.
type ListResult struct {
	Records    []LeadRow `json:"records"`
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

var listSearchFields = []string{"name", "company", "email", "phone"}

// SearchClause returns a case-insensitive substring $or over fields.
// The term is regex-escaped. A blank term yields nil.
func SearchClause(term string, fields []string) bson.A {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	re := regexMatch(term)
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return or
}

func regexMatch(term string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
}

// stageSelected reports whether a stage filter value narrows the result.
func stageSelected(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, "all")
}

// BuildListFilter translates f into a lead filter document.
func BuildListFilter(f ListFilter, dates daterange.Resolver) bson.M {
	filter := bson.M{}
	if rng := dates.Resolve(f.DateFilter, &daterange.Explicit{Start: f.StartDate, End: f.EndDate}); rng != nil {
		filter["createdAt"] = rng.Filter()
	}
	if stageSelected(f.Stage) {
		filter["stage"] = strings.TrimSpace(f.Stage)
	}
	if or := SearchClause(f.Search, listSearchFields); or != nil {
		filter["$or"] = or
	}
	return filter
}

// ListSort maps a named sort key to its sort document. Unknown keys sort
// newest first. _id breaks ties so pages stay disjoint.
func ListSort(key string) bson.D {
	switch key {
	case "name":
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	case "company":
		return bson.D{{Key: "company", Value: 1}, {Key: "_id", Value: 1}}
	case "stage":
		return bson.D{{Key: "stage", Value: 1}, {Key: "_id", Value: 1}}
	default: // "createdDate" and anything else
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// List returns one page of leads.
func List(ctx context.Context, store *leadstore.Store, dates daterange.Resolver, f ListFilter) (ListResult, error) {
	filter := BuildListFilter(f, dates)
	pg := paging.Normalize(f.Page, f.Limit)

	total, err := store.Count(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	opts := options.Find().
		SetSort(ListSort(f.Sort)).
		SetSkip(pg.Skip()).
		SetLimit(int64(pg.Limit))
	leads, err := store.Find(ctx, filter, opts)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Records:    ToRows(leads),
		TotalCount: total,
		Page:       pg.Page,
		Limit:      pg.Limit,
		TotalPages: pg.TotalPages(total),
	}, nil
}
