// Package stage models the pipeline position of a lead.
//
// Storage keeps the stage as free text. Parse turns it into a closed set
// with an explicit Other variant so callers have to decide what an
// unrecognised value means for them.
package stage

// Stage is the parsed pipeline position of a lead.
type Stage int

const (
	Other Stage = iota
	NotContacted
	Contacted
	Opportunity
	Closed
	Lost
)

// Storage labels.
const (
	LabelNotContacted = "Not Contacted"
	LabelContacted    = "Contacted"
	LabelOpportunity  = "Opportunity"
	LabelClosed       = "Closed"
	LabelLost         = "Lost"
)

var labels = map[Stage]string{
	NotContacted: LabelNotContacted,
	Contacted:    LabelContacted,
	Opportunity:  LabelOpportunity,
	Closed:       LabelClosed,
	Lost:         LabelLost,
}

var byLabel = map[string]Stage{
	LabelNotContacted: NotContacted,
	LabelContacted:    Contacted,
	LabelOpportunity:  Opportunity,
	LabelClosed:       Closed,
	LabelLost:         Lost,
}

// Parse maps a stored label to its Stage. Matching is exact, like the
// equality match the store performs; anything else is Other.
func Parse(raw string) Stage {
	if s, ok := byLabel[raw]; ok {
		return s
	}
	return Other
}

// String returns the storage label, or "Other".
func (s Stage) String() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return "Other"
}

// Known reports whether s is one of the five recognised stages.
func (s Stage) Known() bool {
	return s != Other
}

// All returns the recognised stage labels in pipeline order.
func All() []string {
	return []string{LabelNotContacted, LabelContacted, LabelOpportunity, LabelClosed, LabelLost}
}

// Taxonomy is the stage layout the aggregates and the grid are built on.
// It is passed in rather than read from package state so tests can swap
// in alternate layouts.
type Taxonomy struct {
	// Histogram lists the stages counted by the pipeline histogram, in
	// display order. Leads in any other stage are not counted.
	Histogram []string
	// Grid lists the kanban columns in display order.
	Grid []string
	// GridFallback is the column for leads whose stage is not in Grid.
	GridFallback string
	// Won marks a lead as a customer and feeds closed income.
	Won string
	// Lost marks a lead as lost and feeds the lost-reason chart.
	Lost string
}

// DefaultTaxonomy returns the standard layout.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Histogram:    All(),
		Grid:         []string{LabelContacted, LabelNotContacted, LabelClosed, LabelLost},
		GridFallback: LabelNotContacted,
		Won:          LabelClosed,
		Lost:         LabelLost,
	}
}

// GridColumn returns the grid column for a stored stage. Other and every
// recognised stage without its own column land in GridFallback.
func (t Taxonomy) GridColumn(raw string) string {
	s := Parse(raw)
	if !s.Known() {
		return t.GridFallback
	}
	for _, col := range t.Grid {
		if col == s.String() {
			return col
		}
	}
	return t.GridFallback
}
