// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacrm/internal/app/system/stage"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/validators"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Defaults applied on create.
const (
	DefaultStage    = stage.LabelNotContacted
	DefaultPriority = "Medium"
	DefaultUnknown  = "Unknown"
)

var ErrNotFound = errors.New("lead not found")

// Store reads and writes one tenant's leads.
type Store struct {
	c tenant.Collection
}

func New(c tenant.Collection) *Store {
	return &Store{c: c}
}

// IDFilter matches a lead id stored either as an ObjectID or as a raw
// string. Non-hex ids are only matched as strings.
func IDFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

// CreateInput is the payload of a create request.
type CreateInput struct {
	Name         string     `json:"name" validate:"required"`
	Company      string     `json:"company" validate:"required"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Value        float64    `json:"value"`
	Stage        string     `json:"stage"`
	Source       string     `json:"source"`
	Country      string     `json:"country"`
	Address      string     `json:"address"`
	Owner        string     `json:"owner"`
	Client       string     `json:"client"`
	LostReason   string     `json:"lostReason"`
	Tags         []string   `json:"tags"`
	Priority     string     `json:"priority"`
	Notes        string     `json:"notes"`
	FollowUpDate *time.Time `json:"followUpDate"`
	DueDate      *time.Time `json:"dueDate"`
}

func (in *CreateInput) sanitize() {
	for _, p := range []*string{
		&in.Name, &in.Company, &in.Email, &in.Phone, &in.Stage, &in.Source,
		&in.Country, &in.Address, &in.Owner, &in.Client, &in.LostReason,
		&in.Priority, &in.Notes,
	} {
		*p = htmlsanitize.StripTags(*p)
	}
	in.Tags = htmlsanitize.StripAll(in.Tags)
}

// Create validates in, fills defaults and inserts the lead for tenantID.
// Validation failures are returned as *validators.Error.
func (s *Store) Create(ctx context.Context, tenantID string, in CreateInput) (models.Lead, error) {
	in.sanitize()
	if err := validators.Struct(in); err != nil {
		return models.Lead{}, err
	}

	now := time.Now().UTC()
	lead := models.Lead{
		ID:           primitive.NewObjectID(),
		Name:         in.Name,
		NameCI:       text.Fold(in.Name),
		Company:      in.Company,
		Email:        in.Email,
		Phone:        in.Phone,
		Value:        models.Amount(in.Value),
		Stage:        orDefault(in.Stage, DefaultStage),
		Source:       orDefault(in.Source, DefaultUnknown),
		Country:      orDefault(in.Country, DefaultUnknown),
		Address:      in.Address,
		LostReason:   in.LostReason,
		Tags:         in.Tags,
		Priority:     orDefault(in.Priority, DefaultPriority),
		Notes:        in.Notes,
		FollowUpDate: in.FollowUpDate,
		DueDate:      in.DueDate,
		CompanyID:    tenantID,
		IsDeleted:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Owner != "" {
		lead.Owner = in.Owner
	}
	if in.Client != "" {
		lead.Client = in.Client
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}

	if _, err := s.c.InsertOne(ctx, lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// Get returns a lead by id.
func (s *Store) Get(ctx context.Context, id string) (models.Lead, error) {
	var lead models.Lead
	err := s.c.FindOne(ctx, IDFilter(id)).Decode(&lead)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Lead{}, ErrNotFound
		}
		return models.Lead{}, err
	}
	return lead, nil
}

// immutable keys are silently dropped from patches.
var immutable = map[string]bool{
	"_id": true, "id": true, "companyId": true, "createdAt": true, "updatedAt": true, "nameCi": true,
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindTags
	kindBool
	kindDate
)

// patchable lists the lead fields a patch may set, keyed by storage name.
var patchable = map[string]fieldKind{
	"name":         kindString,
	"company":      kindString,
	"email":        kindString,
	"phone":        kindString,
	"stage":        kindString,
	"source":       kindString,
	"country":      kindString,
	"address":      kindString,
	"owner":        kindString,
	"client":       kindString,
	"lostReason":   kindString,
	"priority":     kindString,
	"notes":        kindString,
	"value":        kindNumber,
	"tags":         kindTags,
	"isDeleted":    kindBool,
	"followUpDate": kindDate,
	"dueDate":      kindDate,
}

// Patch builds the $set document for an update. Null values are dropped,
// immutable keys are ignored, strings are stripped of markup and date keys
// are parsed from ISO-8601. Unknown keys and values of the wrong type are
// rejected with a *validators.Error.
func Patch(raw map[string]any) (bson.M, error) {
	set := bson.M{}
	bad := map[string]string{}
	for k, v := range raw {
		if v == nil || immutable[k] {
			continue
		}
		kind, ok := patchable[k]
		if !ok {
			bad[k] = k + " is not an editable lead field"
			continue
		}
		val, msg := coerce(k, kind, v)
		if msg != "" {
			bad[k] = msg
			continue
		}
		set[k] = val
	}
	if len(bad) > 0 {
		return nil, &validators.Error{Fields: bad}
	}
	if name, ok := set["name"].(string); ok {
		if strings.TrimSpace(name) == "" {
			return nil, validators.Required("name")
		}
		set["nameCi"] = text.Fold(name)
	}
	if company, ok := set["company"].(string); ok && strings.TrimSpace(company) == "" {
		return nil, validators.Required("company")
	}
	set["updatedAt"] = time.Now().UTC()
	return set, nil
}

// coerce converts a decoded JSON value to the stored type of field k. A
// non-empty message reports a type mismatch.
func coerce(k string, kind fieldKind, v any) (any, string) {
	switch kind {
	case kindString:
		if s, ok := v.(string); ok {
			return htmlsanitize.StripTags(s), ""
		}
		return nil, k + " must be a string"

	case kindNumber:
		switch n := v.(type) {
		case float64:
			return n, ""
		case int:
			return float64(n), ""
		case int64:
			return float64(n), ""
		case string:
			if a, ok := models.ParseAmount(n); ok {
				return a.Float64(), ""
			}
		}
		return nil, k + " must be a number"

	case kindTags:
		var in []any
		switch t := v.(type) {
		case []any:
			in = t
		case []string:
			return htmlsanitize.StripAll(t), ""
		default:
			return nil, k + " must be a list of strings"
		}
		tags := make([]string, 0, len(in))
		for _, e := range in {
			s, ok := e.(string)
			if !ok {
				return nil, k + " must be a list of strings"
			}
			tags = append(tags, htmlsanitize.StripTags(s))
		}
		return tags, ""

	case kindBool:
		if b, ok := v.(bool); ok {
			return b, ""
		}
		return nil, k + " must be true or false"

	case kindDate:
		s, ok := v.(string)
		if !ok {
			return nil, k + " must be an ISO-8601 date"
		}
		if s == "" {
			return nil, ""
		}
		t, err := parseDate(s)
		if err != nil {
			return nil, k + " must be an ISO-8601 date"
		}
		return t, ""
	}
	return nil, k + " is not an editable lead field"
}

// Update applies raw as a partial update and returns the updated lead.
func (s *Store) Update(ctx context.Context, id string, raw map[string]any) (models.Lead, error) {
	if strings.TrimSpace(id) == "" {
		return models.Lead{}, validators.Required("id")
	}
	set, err := Patch(raw)
	if err != nil {
		return models.Lead{}, err
	}
	res, err := s.c.UpdateOne(ctx, IDFilter(id), bson.M{"$set": set})
	if err != nil {
		return models.Lead{}, err
	}
	if res.MatchedCount == 0 {
		return models.Lead{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a lead by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validators.Required("id")
	}
	res, err := s.c.DeleteOne(ctx, IDFilter(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns the leads matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Lead, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Lead{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of leads matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
