// internal/app/features/exports/exports.go
// Package exports writes filtered lead tables to PDF or XLSX files that
// the dashboard downloads from a short-lived public URL.
package exports

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/app/system/daterange"
	"github.com/dalemusser/stratacrm/internal/app/system/enrich"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultDir        = "temp/exports"
	DefaultPublicPath = "temp/exports"
	DefaultRetention  = time.Hour
	DefaultMaxRows    = 10000
)

// Format is an export file type.
type Format string

const (
	PDF   Format = "pdf"
	Excel Format = "xlsx"
)

// Config controls where files go and how long they live.
type Config struct {
	Dir        string        // filesystem directory
	BaseURL    string        // public origin, e.g. https://crm.example.com
	PublicPath string        // URL path under BaseURL that serves Dir
	Retention  time.Duration // lifetime of a generated file
	MaxRows    int64
	Location   *time.Location
}

// Result describes a generated file.
type Result struct {
	Path        string `json:"-"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	RecordCount int    `json:"recordCount"`
}

// Service generates export files.
type Service struct {
	tenants tenant.Resolver
	cfg     Config
	log     *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates the export directory and returns a Service.
func New(tenants tenant.Resolver, cfg Config, log *zap.Logger) (*Service, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = DefaultPublicPath
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", cfg.Dir, err)
	}
	return &Service{
		tenants: tenants,
		cfg:     cfg,
		log:     log,
		Now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Dir returns the directory files are written to.
func (s *Service) Dir() string { return s.cfg.Dir }

// ExportPDF writes the matching leads to a PDF file.
func (s *Service) ExportPDF(ctx context.Context, tenantID, userID string, f leadqueries.ExportFilter) (Result, error) {
	return s.export(ctx, tenantID, userID, f, PDF)
}

// ExportExcel writes the matching leads to an XLSX file.
func (s *Service) ExportExcel(ctx context.Context, tenantID, userID string, f leadqueries.ExportFilter) (Result, error) {
	return s.export(ctx, tenantID, userID, f, Excel)
}

func (s *Service) export(ctx context.Context, tenantID, userID string, f leadqueries.ExportFilter, format Format) (Result, error) {
	cols, err := s.tenants.Resolve(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", format, err)
	}

	now := s.Now()
	dates := daterange.Resolver{Now: s.Now, Location: s.cfg.Location}
	filter := leadqueries.BuildExportFilter(tenantID, f, dates)
	opts := options.Find().
		SetSort(leadqueries.ListSort(f.Sort)).
		SetLimit(s.cfg.MaxRows)

	leads, err := leadstore.New(cols.Leads).Find(ctx, filter, opts)
	if err != nil {
		return Result{}, fmt.Errorf("export %s: query leads: %w", format, err)
	}
	rows := leadqueries.ToRows(leads)
	s.resolveOwners(ctx, cols, rows)

	name := FileName(tenantID, userID, now.In(s.cfg.Location), string(format))
	path := filepath.Join(s.cfg.Dir, name)

	switch format {
	case PDF:
		err = writePDF(path, "Leads Export", rows, now, s.cfg.Location)
	case Excel:
		err = writeExcel(path, rows, s.cfg.Location)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("export %s: %w", format, err)
	}

	s.scheduleRemoval(path)
	s.log.Info("export generated",
		zap.String("tenant", tenantID),
		zap.String("user", userID),
		zap.String("format", string(format)),
		zap.String("file", name),
		zap.Int("records", len(rows)))

	return Result{
		Path:        path,
		URL:         s.url(name),
		FileName:    name,
		RecordCount: len(rows),
	}, nil
}

// resolveOwners replaces owner ids with employee names in place.
func (s *Service) resolveOwners(ctx context.Context, cols tenant.Collections, rows []leadqueries.LeadRow) {
	if cols.Employees == nil || len(rows) == 0 {
		return
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Owner != leadqueries.NotAvailable {
			ids = append(ids, r.Owner)
		}
	}
	if len(ids) == 0 {
		return
	}
	names, err := enrich.Names(ctx, cols.Employees, ids, enrich.EmployeeName)
	if err != nil {
		s.log.Warn("export owner lookup failed", zap.Error(err))
	}
	for i := range rows {
		if n, ok := names[rows[i].Owner]; ok {
			rows[i].Owner = n
		}
	}
}

func (s *Service) url(name string) string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	rel := strings.Trim(filepath.ToSlash(s.cfg.PublicPath), "/")
	return base + "/" + rel + "/" + name
}

func (s *Service) scheduleRemoval(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[path] = time.AfterFunc(s.cfg.Retention, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("remove expired export failed", zap.String("path", path), zap.Error(err))
		}
	})
}

// Pending reports how many files are waiting for their removal timer.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels outstanding removal timers. Files left behind are picked
// up by Sweep on the next run.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, t := range s.timers {
		t.Stop()
		delete(s.timers, path)
	}
}

// Sweep deletes export files in Dir last modified more than olderThan ago.
func (s *Service) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return 0, fmt.Errorf("sweep exports: %w", err)
	}
	cutoff := s.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), "leads_") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.Dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("sweep export failed", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
