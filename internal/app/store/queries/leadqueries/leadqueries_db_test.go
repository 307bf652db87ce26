package leadqueries

import (
	"context"
	"testing"
	"time"

	leadstore "github.com/dalemusser/stratacrm/internal/app/store/leads"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"github.com/dalemusser/stratacrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestList_SecondPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	fixtures.CreateLeads(ctx, "acme", "Lead", "Contacted", 25, anchor.AddDate(0, 0, -2))

	store := leadstore.New(tenant.For(db, "acme").Leads)

	page1, err := List(ctx, store, fixedDates(), ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	page2, err := List(ctx, store, fixedDates(), ListFilter{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page2.Records, 10)
	assert.Equal(t, int64(25), page2.TotalCount)
	assert.Equal(t, 3, page2.TotalPages)
	assert.Equal(t, 2, page2.Page)

	seen := map[string]bool{}
	for _, r := range page1.Records {
		seen[r.ID] = true
	}
	for _, r := range page2.Records {
		assert.False(t, seen[r.ID], "record %s on both pages", r.ID)
	}

	page3, err := List(ctx, store, fixedDates(), ListFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page3.Records, 5)
}

func TestList_SearchIsCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Wile E.", Company: "ACME Rockets", Stage: "Lost"})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Road Runner", Company: "Desert", Phone: "555-acme"})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Bugs", Company: "Warner"})

	store := leadstore.New(tenant.For(db, "acme").Leads)
	res, err := List(ctx, store, fixedDates(), ListFilter{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	res, err = List(ctx, store, fixedDates(), ListFilter{Search: "acme", Stage: "Lost"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Wile E.", res.Records[0].Name)
}

func TestExportFilter_MatchesOnlyOwnLiveLeads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	want := fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Acme Corp", Company: "X", Stage: "Lost"})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Other", Company: "x", Email: "sales@ACME.io", Stage: "Lost", IsDeleted: true})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Acme Two", Company: "X", Stage: "Closed"})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Acme Foreign", Company: "X", Stage: "Lost", CompanyID: "globex"})
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Nope", Company: "Y", Phone: "acme", Stage: "Lost"})

	store := leadstore.New(tenant.For(db, "acme").Leads)
	leads, err := store.Find(ctx, BuildExportFilter("acme", ExportFilter{Stage: "Lost", Search: "acme"}, fixedDates()), nil)
	require.NoError(t, err)

	require.Len(t, leads, 1)
	assert.Equal(t, want.ID, leads[0].ID)
}

func TestGetDetail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	owner := fixtures.CreateEmployee(ctx, "acme", "Dana Scully")
	lead := fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Acme Corp", Company: "Acme", Owner: owner.ID})
	for i := 0; i < 12; i++ {
		fixtures.CreateActivity(ctx, "acme", lead.ID, "call", time.Now().UTC().Add(time.Duration(i)*time.Minute))
	}

	cols := tenant.For(db, "acme")
	d, err := GetDetail(ctx, cols, lead.Key(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", d.OwnerName)
	assert.Len(t, d.Activities, DetailActivityLimit)

	_, err = GetDetail(ctx, cols, primitive.NewObjectID().Hex(), zap.NewNop())
	assert.ErrorIs(t, err, leadstore.ErrNotFound)
}

func TestGetDetail_OwnerMissFallsBackToID(t *testing.T) {
	leads := &testutil.FakeCollection{
		FindOneFn: func(interface{}) (interface{}, error) {
			return models.Lead{ID: primitive.NewObjectID(), Name: "Acme", Owner: "emp-404"}, nil
		},
	}
	cols := tenant.Collections{
		TenantID:   "acme",
		Leads:      leads,
		Activities: testutil.FailingCollection("activities"),
		Employees:  &testutil.FakeCollection{},
	}
	d, err := GetDetail(context.Background(), cols, "any", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "emp-404", d.OwnerName)
	assert.Empty(t, d.Activities)
}
