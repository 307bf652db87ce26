// Package enrich resolves reference ids to display names with a single
// batched lookup per collection.
//
// Miss policy: any id that cannot be resolved (unknown, blank name, or a
// failed lookup) maps to itself.
package enrich

import (
	"context"
	"strings"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is the union of name-bearing fields across employees and clients.
type Record struct {
	ID        any    `bson:"_id"`
	Name      string `bson:"name"`
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Email     string `bson:"email"`
	Company   string `bson:"company"`
}

// NameFunc picks the display name of a record ("" = no name).
type NameFunc func(Record) string

// EmployeeName prefers name, then "first last", then email.
func EmployeeName(r Record) string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(r.FirstName + " " + r.LastName); n != "" {
		return n
	}
	return strings.TrimSpace(r.Email)
}

// ClientName prefers name, then company.
func ClientName(r Record) string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return strings.TrimSpace(r.Company)
}

// Names returns a display name for every id in ids. Ids are matched both as
// ObjectIDs (when they are valid hex) and as raw strings. The returned map
// is always complete; err reports a failed lookup, in which case every
// entry is the raw id.
func Names(ctx context.Context, coll tenant.Collection, ids []string, name NameFunc) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	in := make(bson.A, 0, len(ids)*2)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = id
		in = append(in, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			in = append(in, oid)
		}
	}
	if len(in) == 0 {
		return out, nil
	}

	proj := options.Find().SetProjection(bson.M{
		"name": 1, "firstName": 1, "lastName": 1, "email": 1, "company": 1,
	})
	cur, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": in}}, proj)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			continue
		}
		key := models.RefKey(r.ID)
		if n := name(r); key != "" && n != "" {
			out[key] = n
		}
	}
	return out, cur.Err()
}
