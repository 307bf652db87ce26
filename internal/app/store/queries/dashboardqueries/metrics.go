package dashboardqueries

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/store/activity"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/enrich"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// unknownLabel names the group of leads with a blank grouping field.
const unknownLabel = "Unknown"

func windowMatch(rng *daterange.Range) bson.M {
	m := bson.M{}
	if rng != nil {
		m["createdAt"] = rng.Filter()
	}
	return m
}

func label(v any) string {
	if s := models.RefKey(v); s != "" {
		return s
	}
	return unknownLabel
}

func aggregate(ctx context.Context, coll tenant.Collection, pipeline mongo.Pipeline, out any) error {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

// pipelineStages counts leads and sums value per recognised stage. Leads
// in any other stage are not counted. The result has one entry per
// histogram stage, in order.
func pipelineStages(ctx context.Context, leads tenant.Collection, rng *daterange.Range, stages []string) ([]StageCount, error) {
	match := windowMatch(rng)
	match["stage"] = bson.M{"$in": stages}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$stage",
			"count": bson.M{"$sum": 1},
			"value": bson.M{"$sum": valueAsDouble},
		}}},
	}
	var rows []struct {
		Stage string        `bson:"_id"`
		Count int64         `bson:"count"`
		Value models.Amount `bson:"value"`
	}
	if err := aggregate(ctx, leads, pipeline, &rows); err != nil {
		return nil, err
	}

	out := make([]StageCount, len(stages))
	pos := make(map[string]int, len(stages))
	for i, s := range stages {
		out[i] = StageCount{Stage: s}
		pos[s] = i
	}
	for _, r := range rows {
		if i, ok := pos[r.Stage]; ok {
			out[i].Count = r.Count
			out[i].Value = r.Value.Float64()
		}
	}
	return out, nil
}

// valueAsDouble reads lead values stored as numbers, decimals or numeric
// strings. Unparseable values count as zero.
var valueAsDouble = bson.M{"$convert": bson.M{
	"input": "$value", "to": "double", "onError": 0.0, "onNull": 0.0,
}}

// tzName renders loc for Mongo date operators. Locations without an IANA
// name are sent as their offset at anchor.
func tzName(loc *time.Location, anchor time.Time) string {
	if name := loc.String(); name != "" && name != "Local" {
		return name
	}
	_, off := anchor.In(loc).Zone()
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/3600, (off%3600)/60)
}

// monthlyBreakdown returns each histogram stage's lead count per month of
// the year window, plus the won stage's summed value per month in
// thousands rounded to two decimals.
func monthlyBreakdown(ctx context.Context, leads tenant.Collection, year daterange.Range, stages []string, won string, tz string) ([]StageMonths, [12]float64, error) {
	var income [12]float64

	match := windowMatch(&year)
	match["stage"] = bson.M{"$in": stages}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"stage": "$stage",
				"month": bson.M{"$month": bson.M{"date": "$createdAt", "timezone": tz}},
			},
			"count": bson.M{"$sum": 1},
			"value": bson.M{"$sum": valueAsDouble},
		}}},
	}
	var rows []struct {
		ID struct {
			Stage string `bson:"stage"`
			Month int    `bson:"month"`
		} `bson:"_id"`
		Count int64         `bson:"count"`
		Value models.Amount `bson:"value"`
	}
	if err := aggregate(ctx, leads, pipeline, &rows); err != nil {
		return nil, income, err
	}

	out := make([]StageMonths, len(stages))
	pos := make(map[string]int, len(stages))
	for i, s := range stages {
		out[i] = StageMonths{Stage: s}
		pos[s] = i
	}
	var wonValue [12]decimal.Decimal
	for _, r := range rows {
		m := r.ID.Month - 1
		if m < 0 || m > 11 {
			continue
		}
		if i, ok := pos[r.ID.Stage]; ok {
			out[i].Months[m] = r.Count
		}
		if r.ID.Stage == won {
			wonValue[m] = wonValue[m].Add(decimal.NewFromFloat(r.Value.Float64()))
		}
	}
	thousand := decimal.NewFromInt(1000)
	for m := range income {
		income[m] = wonValue[m].Div(thousand).Round(2).InexactFloat64()
	}
	return out, income, nil
}

// lostReasons counts lost leads per reason.
func lostReasons(ctx context.Context, leads tenant.Collection, rng *daterange.Range, lost string) ([]NameCount, error) {
	match := windowMatch(rng)
	match["stage"] = lost
	return groupCount(ctx, leads, match, "$lostReason", 0)
}

// topCountries ranks countries by lead count.
func topCountries(ctx context.Context, leads tenant.Collection, rng *daterange.Range, n int) ([]NameCount, error) {
	return groupCount(ctx, leads, windowMatch(rng), "$country", n)
}

func groupCount(ctx context.Context, leads tenant.Collection, match bson.M, field string, limit int) ([]NameCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	var rows []struct {
		ID    any   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := aggregate(ctx, leads, pipeline, &rows); err != nil {
		return nil, err
	}
	out := make([]NameCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, NameCount{Name: label(r.ID), Count: r.Count})
	}
	return out, nil
}

// leadsByCompany ranks companies by summed lead value.
func leadsByCompany(ctx context.Context, leads tenant.Collection, rng *daterange.Range, n int) ([]CompanyValue, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: windowMatch(rng)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$company",
			"value": bson.M{"$sum": valueAsDouble},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "value", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: n}},
	}
	var rows []struct {
		ID    any           `bson:"_id"`
		Value models.Amount `bson:"value"`
		Count int64         `bson:"count"`
	}
	if err := aggregate(ctx, leads, pipeline, &rows); err != nil {
		return nil, err
	}
	out := make([]CompanyValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, CompanyValue{Name: label(r.ID), Value: r.Value.Float64(), Count: r.Count})
	}
	return out, nil
}

// leadsBySource counts leads per source.
func leadsBySource(ctx context.Context, leads tenant.Collection, rng *daterange.Range) ([]SourceLeads, error) {
	rows, err := groupCount(ctx, leads, windowMatch(rng), "$source", 0)
	if err != nil {
		return nil, err
	}
	out := make([]SourceLeads, 0, len(rows))
	for _, r := range rows {
		out = append(out, SourceLeads{Name: r.Name, Leads: r.Count})
	}
	return out, nil
}

// topRefs ranks the values of a reference field (owner or client) by lead
// count and resolves each to a display name. A failed name lookup keeps
// the raw ids and is only logged.
func topRefs(ctx context.Context, leads, names tenant.Collection, rng *daterange.Range, field string, n int, nameOf enrich.NameFunc, log *zap.Logger) ([]RankedRef, error) {
	match := windowMatch(rng)
	match[field] = bson.M{"$nin": bson.A{nil, ""}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: n}},
	}
	var rows []struct {
		ID    any   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := aggregate(ctx, leads, pipeline, &rows); err != nil {
		return nil, err
	}

	out := make([]RankedRef, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := models.RefKey(r.ID)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		out = append(out, RankedRef{ID: id, Count: r.Count})
	}

	resolved, err := enrich.Names(ctx, names, ids, nameOf)
	if err != nil {
		log.Warn("dashboard name lookup failed", zap.String("field", field), zap.Error(err))
	}
	for i := range out {
		out[i].Name = resolved[out[i].ID]
	}
	return out, nil
}

func recentOptions(n int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n))
}

func findRecent[T any](ctx context.Context, coll tenant.Collection, rng *daterange.Range, n int) ([]T, error) {
	cur, err := coll.Find(ctx, windowMatch(rng), recentOptions(n))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func recentLeads(ctx context.Context, leads tenant.Collection, rng *daterange.Range, n int) ([]leadqueries.LeadRow, error) {
	rows, err := findRecent[models.Lead](ctx, leads, rng, n)
	if err != nil {
		return nil, err
	}
	return leadqueries.ToRows(rows), nil
}

func recentActivities(ctx context.Context, acts tenant.Collection, rng *daterange.Range, n int) ([]models.Activity, error) {
	var createdAt bson.M
	if rng != nil {
		createdAt = rng.Filter()
	}
	return activity.New(acts).Recent(ctx, createdAt, int64(n))
}
