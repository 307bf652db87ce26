package leadstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/validators"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"github.com/dalemusser/stratacrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{oid, oid.Hex()}}}, IDFilter(oid.Hex()))
	assert.Equal(t, bson.M{"_id": "legacy-1"}, IDFilter("legacy-1"))
}

func TestCreate_RequiresNameAndCompany(t *testing.T) {
	fake := &testutil.FakeCollection{
		InsertFn: func(interface{}) (interface{}, error) {
			t.Fatal("insert must not run for invalid input")
			return nil, nil
		},
	}
	_, err := New(fake).Create(context.Background(), "acme", CreateInput{Name: "  <b></b> "})

	var ve *validators.Error
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "company")
}

func TestCreate_AppliesDefaults(t *testing.T) {
	var inserted models.Lead
	fake := &testutil.FakeCollection{
		InsertFn: func(doc interface{}) (interface{}, error) {
			inserted = doc.(models.Lead)
			return inserted.ID, nil
		},
	}

	lead, err := New(fake).Create(context.Background(), "acme", CreateInput{
		Name:    "Acme <script>x</script>Corp",
		Company: "Acme",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, lead.Key())
	assert.Equal(t, "Acme Corp", lead.Name)
	assert.Equal(t, "Not Contacted", lead.Stage)
	assert.Equal(t, "Medium", lead.Priority)
	assert.Equal(t, "Unknown", lead.Source)
	assert.Equal(t, "Unknown", lead.Country)
	assert.Equal(t, "acme", lead.CompanyID)
	assert.Equal(t, []string{}, lead.Tags)
	assert.False(t, lead.IsDeleted)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.Equal(t, lead, inserted)
}

func TestPatch(t *testing.T) {
	set, err := Patch(map[string]any{
		"name":         "Globex",
		"notes":        nil,
		"_id":          "x",
		"companyId":    "other",
		"createdAt":    "2020-01-01",
		"value":        1200.5,
		"tags":         []any{"<i>hot</i>", "b2b"},
		"followUpDate": "2026-10-20",
		"dueDate":      "",
	})
	require.NoError(t, err)

	assert.Equal(t, "Globex", set["name"])
	assert.Equal(t, "globex", set["nameCi"])
	assert.Equal(t, 1200.5, set["value"])
	assert.Equal(t, []string{"hot", "b2b"}, set["tags"])
	assert.Contains(t, set, "updatedAt")
	assert.Contains(t, set, "followUpDate")
	assert.Nil(t, set["dueDate"])
	for _, k := range []string{"notes", "_id", "companyId", "createdAt"} {
		assert.NotContains(t, set, k)
	}
}

func TestPatch_CoercesNumericStrings(t *testing.T) {
	set, err := Patch(map[string]any{"value": "5,000.50", "isDeleted": true})
	require.NoError(t, err)
	assert.Equal(t, 5000.5, set["value"])
	assert.Equal(t, true, set["isDeleted"])
}

func TestPatch_RejectsWrongTypes(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{"non-numeric value", map[string]any{"value": "lots"}},
		{"bool value", map[string]any{"value": true}},
		{"numeric stage", map[string]any{"stage": 3.0}},
		{"string tags", map[string]any{"tags": "vip"}},
		{"mixed tags", map[string]any{"tags": []any{"vip", 3.0}}},
		{"string isDeleted", map[string]any{"isDeleted": "yes"}},
		{"numeric date", map[string]any{"dueDate": 20261020.0}},
		{"operator key", map[string]any{"$where": "1"}},
		{"unknown key", map[string]any{"score": 10.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := Patch(tc.raw)
			assert.Nil(t, set)
			var ve *validators.Error
			require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
			for k := range tc.raw {
				assert.Contains(t, ve.Fields, k)
			}
		})
	}
}

func TestPatch_ReportsEveryBadField(t *testing.T) {
	_, err := Patch(map[string]any{"value": "5000", "stage": 3.0, "tags": "vip", "isDeleted": "yes", "$where": "1"})
	var ve *validators.Error
	require.True(t, errors.As(err, &ve))
	assert.NotContains(t, ve.Fields, "value")
	for _, k := range []string{"stage", "tags", "isDeleted", "$where"} {
		assert.Contains(t, ve.Fields, k)
	}
}

func TestPatch_RejectsBlankName(t *testing.T) {
	_, err := Patch(map[string]any{"name": "  "})
	var ve *validators.Error
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "name")
}

func TestUpdate_NotFound(t *testing.T) {
	fake := &testutil.FakeCollection{
		UpdateFn: func(_, _ interface{}) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	_, err := New(fake).Update(context.Background(), primitive.NewObjectID().Hex(), map[string]any{"stage": "Lost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_RequiresID(t *testing.T) {
	_, err := New(&testutil.FakeCollection{}).Update(context.Background(), "", map[string]any{"stage": "Lost"})
	var ve *validators.Error
	assert.True(t, errors.As(err, &ve))
}

func TestDelete_NotFoundDoesNotMutate(t *testing.T) {
	calls := 0
	fake := &testutil.FakeCollection{
		DeleteFn: func(interface{}) (*mongo.DeleteResult, error) {
			calls++
			return &mongo.DeleteResult{DeletedCount: 0}, nil
		},
	}
	err := New(fake).Delete(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestGet_NotFound(t *testing.T) {
	_, err := New(&testutil.FakeCollection{}).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func legacyDoc() bson.D {
	return bson.D{
		{Key: "_id", Value: "legacy-1"},
		{Key: "name", Value: "Old Lead"},
		{Key: "company", Value: "Old Co"},
		{Key: "value", Value: "5000"},
		{Key: "stage", Value: "Contacted"},
	}
}

func TestGet_LegacyRecord(t *testing.T) {
	fake := &testutil.FakeCollection{
		FindOneFn: func(filter interface{}) (interface{}, error) {
			assert.Equal(t, bson.M{"_id": "legacy-1"}, filter)
			return legacyDoc(), nil
		},
	}
	lead, err := New(fake).Get(context.Background(), "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", lead.Key())
	assert.Equal(t, models.Amount(5000), lead.Value)
}

func TestFind_MixedRecords(t *testing.T) {
	oid := primitive.NewObjectID()
	dec, err := primitive.ParseDecimal128("1250.75")
	require.NoError(t, err)
	fake := &testutil.FakeCollection{
		FindFn: func(interface{}) ([]interface{}, error) {
			return []interface{}{
				legacyDoc(),
				bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "New"}, {Key: "value", Value: dec}},
				bson.D{{Key: "_id", Value: oid.Hex()}, {Key: "name", Value: "Bad"}, {Key: "value", Value: "n/a"}},
			}, nil
		},
	}
	got, err := New(fake).Find(context.Background(), bson.M{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "legacy-1", got[0].Key())
	assert.Equal(t, oid.Hex(), got[1].Key())
	assert.Equal(t, models.Amount(1250.75), got[1].Value)
	assert.Equal(t, oid.Hex(), got[2].Key())
	assert.Zero(t, got[2].Value)
}

func TestUpdate_LegacyRecord(t *testing.T) {
	fake := &testutil.FakeCollection{
		UpdateFn: func(_, _ interface{}) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
		FindOneFn: func(interface{}) (interface{}, error) {
			return legacyDoc(), nil
		},
	}
	lead, err := New(fake).Update(context.Background(), "legacy-1", map[string]any{"stage": "Lost"})
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", lead.Key())
	assert.Equal(t, models.Amount(5000), lead.Value)
}

func TestStore_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(tenant.For(db, "acme").Leads)

	created, err := store.Create(ctx, "acme", CreateInput{Name: "Acme Corp", Company: "Acme", Value: 5000, Stage: "Closed"})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.Key())
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, models.Amount(5000), got.Value)

	updated, err := store.Update(ctx, created.Key(), map[string]any{"stage": "Lost", "lostReason": "Price", "phone": nil})
	require.NoError(t, err)
	assert.Equal(t, "Lost", updated.Stage)
	assert.Equal(t, "Price", updated.LostReason)
	assert.Equal(t, "acme", updated.CompanyID)

	n, err := store.Count(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Delete(ctx, created.Key()))
	assert.ErrorIs(t, store.Delete(ctx, created.Key()), ErrNotFound)

	n, err = store.Count(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_DeleteMissingLeavesOthers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	fixtures.CreateLead(ctx, "acme", models.Lead{Name: "Keep", Company: "Keep Co", Stage: "Contacted"})

	store := New(tenant.For(db, "acme").Leads)
	assert.ErrorIs(t, store.Delete(ctx, primitive.NewObjectID().Hex()), ErrNotFound)

	n, err := store.Count(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
