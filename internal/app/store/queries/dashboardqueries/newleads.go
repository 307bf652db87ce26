package dashboardqueries

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthLabels   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// weeksPerMonth is the fixed number of week-of-month buckets. Days 29-31
// share the last bucket with days 22-28.
const weeksPerMonth = 5

// SeriesGranularity maps the new-leads chart filter to its granularity.
// Unknown values fall back to def.
func SeriesGranularity(filter string, def daterange.Granularity) daterange.Granularity {
	switch filter {
	case "week":
		return daterange.Week
	case "month":
		return daterange.Month
	case "year":
		return daterange.Year
	}
	return def
}

// BucketNewLeads counts creation times into the chart buckets for g,
// reading each time in loc. Weeks are shown Monday first.
func BucketNewLeads(times []time.Time, g daterange.Granularity, loc *time.Location) []SeriesPoint {
	var labels []string
	var index func(time.Time) int
	switch g {
	case daterange.Week:
		labels = weekdayLabels
		index = func(t time.Time) int { return (int(t.Weekday()) + 6) % 7 }
	case daterange.Month:
		labels = make([]string, weeksPerMonth)
		for i := range labels {
			labels[i] = fmt.Sprintf("Week %d", i+1)
		}
		index = func(t time.Time) int { return min((t.Day()-1)/7, weeksPerMonth-1) }
	default:
		labels = monthLabels
		index = func(t time.Time) int { return int(t.Month()) - 1 }
	}

	out := make([]SeriesPoint, len(labels))
	for i, l := range labels {
		out[i] = SeriesPoint{Name: l}
	}
	for _, t := range times {
		out[index(t.In(loc))].Y++
	}
	return out
}

// newLeadsSeries loads the creation times inside the current window of g
// and buckets them.
func newLeadsSeries(ctx context.Context, leads tenant.Collection, rng daterange.Range, g daterange.Granularity, loc *time.Location) ([]SeriesPoint, error) {
	opts := options.Find().SetProjection(bson.M{"createdAt": 1, "_id": 0})
	cur, err := leads.Find(ctx, bson.M{"createdAt": rng.Filter()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var times []time.Time
	for cur.Next(ctx) {
		var row struct {
			CreatedAt time.Time `bson:"createdAt"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		// A bucket index is only meaningful inside the window.
		if !rng.Contains(row.CreatedAt) {
			continue
		}
		times = append(times, row.CreatedAt)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return BucketNewLeads(times, g, loc), nil
}
