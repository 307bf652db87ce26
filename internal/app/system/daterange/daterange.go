// Package daterange turns the dashboard's named filters into concrete
// time windows.
//
// Every window in the service is derived from Window, which knows the
// calendar conventions: weeks start on Sunday at 00:00 and all boundaries
// are computed in the resolver's location.
//
// Two boundary semantics coexist on purpose. Named filters produce
// half-open windows [start, end); explicit ranges supplied by the caller
// are inclusive [start, end].
package daterange

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Granularity is the calendar unit of a window.
type Granularity int

const (
	Week Granularity = iota
	Month
	Year
)

// Range is a resolved time window. A zero End means open-ended.
type Range struct {
	Start     time.Time
	End       time.Time
	Inclusive bool // End is inclusive ($lte) instead of exclusive ($lt)
}

// Filter renders the range as a Mongo comparison document for a date field.
func (r Range) Filter() bson.M {
	f := bson.M{"$gte": r.Start}
	if r.End.IsZero() {
		return f
	}
	if r.Inclusive {
		f["$lte"] = r.End
	} else {
		f["$lt"] = r.End
	}
	return f
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	if r.End.IsZero() {
		return true
	}
	if r.Inclusive {
		return !t.After(r.End)
	}
	return t.Before(r.End)
}

// Window returns the half-open calendar window of granularity g that
// contains anchor, shifted by offset whole windows (-1 = previous).
func Window(anchor time.Time, g Granularity, offset int) Range {
	loc := anchor.Location()
	y, m, d := anchor.Date()
	switch g {
	case Week:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		start = start.AddDate(0, 0, -int(start.Weekday())+7*offset)
		return Range{Start: start, End: start.AddDate(0, 0, 7)}
	case Month:
		start := time.Date(y, m+time.Month(offset), 1, 0, 0, 0, 0, loc)
		return Range{Start: start, End: start.AddDate(0, 1, 0)}
	default:
		start := time.Date(y+offset, time.January, 1, 0, 0, 0, 0, loc)
		return Range{Start: start, End: start.AddDate(1, 0, 0)}
	}
}

// Explicit is a caller-supplied range as ISO-8601 strings.
type Explicit struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MetricKind selects how per-metric window names are read.
type MetricKind int

const (
	// Calendar reads every name literally.
	Calendar MetricKind = iota
	// MonthMeansYear reads "thisMonth" as the whole current year. The
	// company and source charts have always been labelled this way and
	// their consumers depend on the year-wide numbers.
	MonthMeansYear
)

// Resolver resolves named filters relative to Now in Location.
type Resolver struct {
	Now      func() time.Time
	Location *time.Location
}

// Anchor returns the current instant in the resolver's location.
func (r Resolver) Anchor() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Resolve maps the primary dashboard/list filter to a window.
//
// A parseable explicit range wins and is inclusive. Otherwise "week",
// "month" and "year" give the current half-open calendar window and any
// other value (including "custom" and "") gives nil, meaning no filter.
func (r Resolver) Resolve(filter string, explicit *Explicit) *Range {
	if rng, ok := r.parseExplicit(explicit); ok {
		return &rng
	}
	anchor := r.Anchor()
	switch filter {
	case "week":
		w := Window(anchor, Week, 0)
		return &w
	case "month":
		w := Window(anchor, Month, 0)
		return &w
	case "year":
		w := Window(anchor, Year, 0)
		return &w
	}
	return nil
}

// PipelineYear is the window used by the pipeline aggregates when the
// caller pins a year.
func (r Resolver) PipelineYear(year int) Range {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, r.Anchor().Location())
	return Range{Start: start, End: start.AddDate(1, 0, 0)}
}

// Metric resolves the window names used by the per-chart filters
// (lost reasons, companies, sources, countries). Unknown names and "all"
// give nil.
func (r Resolver) Metric(name string, kind MetricKind) *Range {
	anchor := r.Anchor()
	var w Range
	switch name {
	case "thisWeek", "week":
		w = Window(anchor, Week, 0)
	case "lastWeek":
		w = Window(anchor, Week, -1)
	case "thisMonth":
		if kind == MonthMeansYear {
			w = Window(anchor, Year, 0)
		} else {
			w = Window(anchor, Month, 0)
		}
	case "month":
		w = Window(anchor, Month, 0)
	case "lastMonth":
		w = Window(anchor, Month, -1)
	case "thisYear", "year":
		w = Window(anchor, Year, 0)
	default:
		return nil
	}
	return &w
}

// Trailing returns the open-ended window that starts the given number of
// months and days before now.
func (r Resolver) Trailing(months, days int) Range {
	return Range{Start: r.Anchor().AddDate(0, -months, -days)}
}

func (r Resolver) parseExplicit(e *Explicit) (Range, bool) {
	if e == nil || strings.TrimSpace(e.Start) == "" || strings.TrimSpace(e.End) == "" {
		return Range{}, false
	}
	loc := r.Anchor().Location()
	start, ok := parseISO(e.Start, loc)
	if !ok {
		return Range{}, false
	}
	end, ok := parseISO(e.End, loc)
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: end, Inclusive: true}, true
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
