package dashboardqueries

import (
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/domain/models"
)

// NoData labels the placeholder entry substituted into empty chart series.
const NoData = "No Data"

// Filters is the dashboard request. Every field resolves to its own window.
type Filters struct {
	Filter                  string              `json:"filter"`
	ExplicitRange           *daterange.Explicit `json:"dateRange,omitempty"`
	NewLeadsFilter          string              `json:"newLeadsFilter"`
	NewLeadsDashboardFilter string              `json:"newLeadsDashboardFilter"`
	PipelineYear            int                 `json:"pipelineYear"`
	LostReasonFilter        string              `json:"lostReasonFilter"`
	ByCompanyFilter         string              `json:"byCompanyFilter"`
	BySourceFilter          string              `json:"bySourceFilter"`
	TopCountriesFilter      string              `json:"topCountriesFilter"`
}

func (f Filters) withDefaults(d Defaults) Filters {
	set := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	set(&f.Filter, d.Filter)
	set(&f.NewLeadsFilter, d.NewLeadsFilter)
	set(&f.NewLeadsDashboardFilter, d.NewLeadsDashboardFilter)
	set(&f.LostReasonFilter, d.LostReasonFilter)
	set(&f.ByCompanyFilter, d.ByCompanyFilter)
	set(&f.BySourceFilter, d.BySourceFilter)
	set(&f.TopCountriesFilter, d.TopCountriesFilter)
	return f
}

// StageCount is one bar of the pipeline histogram.
type StageCount struct {
	Stage string  `json:"stage"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// StageMonths is one stage's lead count per calendar month (Jan..Dec).
type StageMonths struct {
	Stage  string    `json:"stage"`
	Months [12]int64 `json:"months"`
}

// NameCount is a categorical count.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CompanyValue ranks companies by summed lead value.
type CompanyValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int64   `json:"count"`
}

// SourceLeads counts leads per source.
type SourceLeads struct {
	Name  string `json:"name"`
	Leads int64  `json:"leads"`
}

// RankedRef is an owner or client with its display name.
type RankedRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SeriesPoint is one bucket of the new-leads chart.
type SeriesPoint struct {
	Name string `json:"name"`
	Y    int64  `json:"y"`
}

// Response is the assembled dashboard.
type Response struct {
	TotalLeads     int64 `json:"totalLeads"`
	NewLeads       int64 `json:"newLeads"`
	LostLeads      int64 `json:"lostLeads"`
	TotalCustomers int64 `json:"totalCustomers"`

	PipelineStages  []StageCount  `json:"pipelineStages"`
	PipelineMonthly []StageMonths `json:"pipelineMonthly"`
	ClosedIncome    [12]float64   `json:"closedIncome"`
	PipelineYear    int           `json:"pipelineYear"`

	LostLeadsByReason []NameCount    `json:"lostLeadsByReason"`
	LeadsByCompany    []CompanyValue `json:"leadsByCompany"`
	LeadsBySource     []SourceLeads  `json:"leadsBySource"`
	TopCountries      []NameCount    `json:"topCountries"`

	RecentLeads           []leadqueries.LeadRow   `json:"recentLeads"`
	RecentActivities      []models.Activity       `json:"recentActivities"`
	RecentTasks           []models.Task           `json:"recentTasks"`
	RecentJobApplications []models.JobApplication `json:"recentJobApplications"`

	TopOwners  []RankedRef `json:"topOwners"`
	TopClients []RankedRef `json:"topClients"`

	NewLeadsDashboardData []SeriesPoint `json:"newLeadsDashboardData"`
}

// emptyResponse returns a response holding every metric's empty value.
func emptyResponse(stages []string, year int) Response {
	pipe := make([]StageCount, len(stages))
	monthly := make([]StageMonths, len(stages))
	for i, s := range stages {
		pipe[i] = StageCount{Stage: s}
		monthly[i] = StageMonths{Stage: s}
	}
	return Response{
		PipelineStages:        pipe,
		PipelineMonthly:       monthly,
		PipelineYear:          year,
		LostLeadsByReason:     []NameCount{},
		LeadsByCompany:        []CompanyValue{},
		LeadsBySource:         []SourceLeads{},
		TopCountries:          []NameCount{},
		RecentLeads:           []leadqueries.LeadRow{},
		RecentActivities:      []models.Activity{},
		RecentTasks:           []models.Task{},
		RecentJobApplications: []models.JobApplication{},
		TopOwners:             []RankedRef{},
		TopClients:            []RankedRef{},
		NewLeadsDashboardData: []SeriesPoint{},
	}
}

// applySentinels substitutes a NoData entry into the chart series that
// would otherwise render nothing.
func applySentinels(r *Response) {
	if len(r.LostLeadsByReason) == 0 {
		r.LostLeadsByReason = []NameCount{{Name: NoData}}
	}
	if len(r.LeadsBySource) == 0 {
		r.LeadsBySource = []SourceLeads{{Name: NoData}}
	}
	if len(r.TopCountries) == 0 {
		r.TopCountries = []NameCount{{Name: NoData}}
	}
	if seriesEmpty(r.NewLeadsDashboardData) {
		r.NewLeadsDashboardData = []SeriesPoint{{Name: NoData}}
	}
}

func seriesEmpty(s []SeriesPoint) bool {
	for _, p := range s {
		if p.Y != 0 {
			return false
		}
	}
	return true
}
