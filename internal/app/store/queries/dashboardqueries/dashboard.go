package dashboardqueries

import (
	"context"
	"fmt"
	"time"

	metricsstore "github.com/dalemusser/stratacrm/internal/app/store/metrics"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/enrich"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator computes dashboards for any tenant.
type Aggregator struct {
	tenants tenant.Resolver
	cfg     Config
	log     *zap.Logger

	// Now is the clock every window is anchored to.
	Now func() time.Time
}

// New constructs an Aggregator.
func New(tenants tenant.Resolver, cfg Config, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{tenants: tenants, cfg: cfg.normalized(), log: log, Now: time.Now}
}

// Config returns the normalized configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// metric runs fn and stores its result in dst. A failure is logged and
// leaves dst at its empty value.
func metric[T any](ctx context.Context, log *zap.Logger, name string, dst *T, fn func(context.Context) (T, error)) func() error {
	return func() error {
		v, err := fn(ctx)
		if err != nil {
			log.Warn("dashboard metric failed", zap.String("metric", name), zap.Error(err))
			return nil
		}
		*dst = v
		return nil
	}
}

// GetDashboardData computes every dashboard metric for tenantID. Only a
// tenant resolution failure is returned as an error; individual metric
// failures degrade that metric.
func (a *Aggregator) GetDashboardData(ctx context.Context, tenantID string, f Filters) (Response, error) {
	cols, err := a.tenants.Resolve(ctx, tenantID)
	if err != nil {
		return Response{}, fmt.Errorf("dashboard: %w", err)
	}

	cfg := a.cfg
	f = f.withDefaults(cfg.Defaults)
	dates := daterange.Resolver{Now: a.Now, Location: cfg.Location}
	anchor := dates.Anchor()
	log := a.log.With(zap.String("tenant", tenantID))

	primary := dates.Resolve(f.Filter, f.ExplicitRange)
	histogramWindow := primary
	year := anchor.Year()
	if f.PipelineYear > 0 {
		py := dates.PipelineYear(f.PipelineYear)
		histogramWindow = &py
		year = f.PipelineYear
	}
	yearWindow := dates.PipelineYear(year)
	seriesGran := SeriesGranularity(f.NewLeadsDashboardFilter, SeriesGranularity(cfg.Defaults.NewLeadsDashboardFilter, daterange.Week))
	seriesWindow := daterange.Window(anchor, seriesGran, 0)

	resp := emptyResponse(cfg.Stages.Histogram, year)
	var counts metricsstore.Counts
	var monthly struct {
		stages []StageMonths
		income [12]float64
	}
	monthly.stages = resp.PipelineMonthly

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)

	g.Go(func() error {
		counts = metricsstore.FetchLeadCounts(ctx, cols.Leads, metricsstore.Windows{
			Primary:   primary,
			New:       dates.Metric(f.NewLeadsFilter, daterange.Calendar),
			WonStage:  cfg.Stages.Won,
			LostStage: cfg.Stages.Lost,
		}, log)
		return nil
	})
	g.Go(metric(ctx, log, "pipelineStages", &resp.PipelineStages, func(ctx context.Context) ([]StageCount, error) {
		return pipelineStages(ctx, cols.Leads, histogramWindow, cfg.Stages.Histogram)
	}))
	g.Go(func() error {
		stages, income, err := monthlyBreakdown(ctx, cols.Leads, yearWindow, cfg.Stages.Histogram, cfg.Stages.Won, tzName(cfg.Location, anchor))
		if err != nil {
			log.Warn("dashboard metric failed", zap.String("metric", "pipelineMonthly"), zap.Error(err))
			return nil
		}
		monthly.stages, monthly.income = stages, income
		return nil
	})
	g.Go(metric(ctx, log, "lostLeadsByReason", &resp.LostLeadsByReason, func(ctx context.Context) ([]NameCount, error) {
		return lostReasons(ctx, cols.Leads, dates.Metric(f.LostReasonFilter, daterange.Calendar), cfg.Stages.Lost)
	}))
	g.Go(metric(ctx, log, "leadsByCompany", &resp.LeadsByCompany, func(ctx context.Context) ([]CompanyValue, error) {
		return leadsByCompany(ctx, cols.Leads, dates.Metric(f.ByCompanyFilter, daterange.MonthMeansYear), cfg.TopN)
	}))
	g.Go(metric(ctx, log, "leadsBySource", &resp.LeadsBySource, func(ctx context.Context) ([]SourceLeads, error) {
		return leadsBySource(ctx, cols.Leads, dates.Metric(f.BySourceFilter, daterange.MonthMeansYear))
	}))
	g.Go(metric(ctx, log, "topCountries", &resp.TopCountries, func(ctx context.Context) ([]NameCount, error) {
		return topCountries(ctx, cols.Leads, dates.Metric(f.TopCountriesFilter, daterange.Calendar), cfg.TopN)
	}))
	g.Go(metric(ctx, log, "recentLeads", &resp.RecentLeads, func(ctx context.Context) ([]leadqueries.LeadRow, error) {
		return recentLeads(ctx, cols.Leads, primary, cfg.RecentN)
	}))
	g.Go(metric(ctx, log, "recentActivities", &resp.RecentActivities, func(ctx context.Context) ([]models.Activity, error) {
		return recentActivities(ctx, cols.Activities, primary, cfg.RecentN)
	}))
	g.Go(metric(ctx, log, "recentTasks", &resp.RecentTasks, func(ctx context.Context) ([]models.Task, error) {
		return findRecent[models.Task](ctx, cols.Tasks, primary, cfg.RecentN)
	}))
	g.Go(metric(ctx, log, "recentJobApplications", &resp.RecentJobApplications, func(ctx context.Context) ([]models.JobApplication, error) {
		return findRecent[models.JobApplication](ctx, cols.JobApplications, primary, cfg.RecentN)
	}))
	g.Go(metric(ctx, log, "topOwners", &resp.TopOwners, func(ctx context.Context) ([]RankedRef, error) {
		return topRefs(ctx, cols.Leads, cols.Employees, primary, "owner", cfg.TopN, enrich.EmployeeName, log)
	}))
	g.Go(metric(ctx, log, "topClients", &resp.TopClients, func(ctx context.Context) ([]RankedRef, error) {
		return topRefs(ctx, cols.Leads, cols.Clients, primary, "client", cfg.TopN, enrich.ClientName, log)
	}))
	g.Go(metric(ctx, log, "newLeadsDashboardData", &resp.NewLeadsDashboardData, func(ctx context.Context) ([]SeriesPoint, error) {
		return newLeadsSeries(ctx, cols.Leads, seriesWindow, seriesGran, cfg.Location)
	}))

	_ = g.Wait() // tasks never return errors

	resp.TotalLeads = counts.Total
	resp.NewLeads = counts.New
	resp.LostLeads = counts.Lost
	resp.TotalCustomers = counts.Customers
	resp.PipelineMonthly = monthly.stages
	resp.ClosedIncome = monthly.income

	applySentinels(&resp)
	return resp, nil
}
