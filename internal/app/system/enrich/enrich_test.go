package enrich

import (
	"context"
	"testing"

	"github.com/dalemusser/stratacrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEmployeeName(t *testing.T) {
	assert.Equal(t, "Ana", EmployeeName(Record{Name: "Ana", FirstName: "X"}))
	assert.Equal(t, "Ana Silva", EmployeeName(Record{FirstName: "Ana", LastName: "Silva"}))
	assert.Equal(t, "ana@example.com", EmployeeName(Record{Email: "ana@example.com"}))
	assert.Equal(t, "", EmployeeName(Record{}))
}

func TestClientName(t *testing.T) {
	assert.Equal(t, "Globex", ClientName(Record{Company: "Globex"}))
	assert.Equal(t, "Hank", ClientName(Record{Name: "Hank", Company: "Globex"}))
}

func TestNames_HitsAndMisses(t *testing.T) {
	known := primitive.NewObjectID()
	missing := primitive.NewObjectID()

	var gotFilter interface{}
	coll := &testutil.FakeCollection{
		FindFn: func(filter interface{}) ([]interface{}, error) {
			gotFilter = filter
			return []interface{}{
				bson.D{{Key: "_id", Value: known}, {Key: "firstName", Value: "Ana"}, {Key: "lastName", Value: "Silva"}},
				bson.D{{Key: "_id", Value: "legacy-7"}, {Key: "name", Value: "Bo"}},
			}, nil
		},
	}

	names, err := Names(context.Background(), coll,
		[]string{known.Hex(), missing.Hex(), "legacy-7", "", known.Hex()}, EmployeeName)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		known.Hex():   "Ana Silva",
		missing.Hex(): missing.Hex(),
		"legacy-7":    "Bo",
	}, names)

	in := gotFilter.(bson.M)["_id"].(bson.M)["$in"].(bson.A)
	assert.Len(t, in, 5) // two ids as both string and ObjectID, plus one string
}

func TestNames_LookupFailureFallsBackToRawIDs(t *testing.T) {
	names, err := Names(context.Background(), testutil.FailingCollection("employees"),
		[]string{"a", "b"}, EmployeeName)

	assert.ErrorIs(t, err, testutil.ErrFake)
	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, names)
}

func TestNames_Empty(t *testing.T) {
	names, err := Names(context.Background(), testutil.FailingCollection("employees"), nil, EmployeeName)
	require.NoError(t, err)
	assert.Empty(t, names)
}
