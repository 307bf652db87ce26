package metricsstore

import (
	"context"

	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Counts is the set of lead totals shown on the dashboard header.
type Counts struct {
	Total     int64
	New       int64
	Lost      int64
	Customers int64
}

// Windows selects what each counter counts. Nil ranges match all leads.
type Windows struct {
	Primary   *daterange.Range // total, lost, customers
	New       *daterange.Range // new
	WonStage  string
	LostStage string
}

// FetchLeadCounts returns the dashboard totals for one tenant.
// Intentionally tolerant: on error it logs and returns 0 for that counter.
func FetchLeadCounts(ctx context.Context, leads tenant.Collection, w Windows, log *zap.Logger) Counts {
	var out Counts

	count := func(name string, dst *int64, rng *daterange.Range, extra bson.M) {
		filter := bson.M{}
		if rng != nil {
			filter["createdAt"] = rng.Filter()
		}
		for k, v := range extra {
			filter[k] = v
		}
		n, err := leads.CountDocuments(ctx, filter)
		if err != nil {
			log.Warn("lead counter failed", zap.String("counter", name), zap.Error(err))
			return
		}
		*dst = n
	}

	count("total", &out.Total, w.Primary, nil)
	count("new", &out.New, w.New, nil)
	count("lost", &out.Lost, w.Primary, bson.M{"stage": w.LostStage})
	count("customers", &out.Customers, w.Primary, bson.M{"stage": w.WonStage})

	return out
}
