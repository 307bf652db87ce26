package stage_test

import (
	"testing"

	"github.com/dalemusser/stratacrm/internal/app/system/stage"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]stage.Stage{
		"Not Contacted": stage.NotContacted,
		"Contacted":     stage.Contacted,
		"Opportunity":   stage.Opportunity,
		"Closed":        stage.Closed,
		"Lost":          stage.Lost,
		"":              stage.Other,
		"closed":        stage.Other,
		"Negotiation":   stage.Other,
	}
	for raw, want := range cases {
		assert.Equal(t, want, stage.Parse(raw), "raw=%q", raw)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, label := range stage.All() {
		s := stage.Parse(label)
		assert.True(t, s.Known())
		assert.Equal(t, label, s.String())
	}
	assert.False(t, stage.Other.Known())
	assert.Equal(t, "Other", stage.Other.String())
}

func TestGridColumn(t *testing.T) {
	tax := stage.DefaultTaxonomy()
	cases := map[string]string{
		"Contacted":     "Contacted",
		"Not Contacted": "Not Contacted",
		"Closed":        "Closed",
		"Lost":          "Lost",
		"Opportunity":   "Not Contacted",
		"Negotiation":   "Not Contacted",
		"":              "Not Contacted",
	}
	for raw, want := range cases {
		assert.Equal(t, want, tax.GridColumn(raw), "raw=%q", raw)
	}
}

func TestGridColumn_AlternateTaxonomy(t *testing.T) {
	tax := stage.Taxonomy{
		Grid:         []string{stage.LabelOpportunity, stage.LabelLost},
		GridFallback: stage.LabelLost,
	}
	assert.Equal(t, "Opportunity", tax.GridColumn("Opportunity"))
	assert.Equal(t, "Lost", tax.GridColumn("Contacted"))
}
