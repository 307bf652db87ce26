// Package dashboardqueries computes the lead dashboard: a set of
// independently windowed metrics over one tenant's collections, each of
// which degrades to its empty value when its query fails.
package dashboardqueries

import (
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/stage"
)

// Defaults are the filter values used when a request leaves a field empty.
type Defaults struct {
	Filter                  string
	NewLeadsFilter          string
	NewLeadsDashboardFilter string
	LostReasonFilter        string
	ByCompanyFilter         string
	BySourceFilter          string
	TopCountriesFilter      string
}

// Config is everything the aggregator would otherwise hard-code.
type Config struct {
	Stages   stage.Taxonomy
	Defaults Defaults
	// Location is the time zone for calendar windows and bucketing.
	Location *time.Location
	// TopN bounds the company, country, owner and client rankings.
	TopN int
	// RecentN bounds the recent leads/activities/tasks/job application lists.
	RecentN int
	// Concurrency bounds how many metric queries run at once.
	Concurrency int
}

// DefaultConfig returns the standard dashboard configuration in loc.
func DefaultConfig(loc *time.Location) Config {
	if loc == nil {
		loc = time.Local
	}
	return Config{
		Stages: stage.DefaultTaxonomy(),
		Defaults: Defaults{
			Filter:                  "",
			NewLeadsFilter:          "week",
			NewLeadsDashboardFilter: "week",
			LostReasonFilter:        "thisMonth",
			ByCompanyFilter:         "thisMonth",
			BySourceFilter:          "thisMonth",
			TopCountriesFilter:      "thisMonth",
		},
		Location:    loc,
		TopN:        5,
		RecentN:     5,
		Concurrency: 4,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig(c.Location)
	if c.Location == nil {
		c.Location = def.Location
	}
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.RecentN <= 0 {
		c.RecentN = def.RecentN
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if len(c.Stages.Histogram) == 0 {
		c.Stages = def.Stages
	}
	return c
}
