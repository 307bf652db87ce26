// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event types written by lead mutations.
const (
	EventLeadCreated = "lead_created"
	EventLeadUpdated = "lead_updated"
	EventLeadDeleted = "lead_deleted"
)

// Store manages one tenant's activity timeline.
type Store struct {
	c tenant.Collection
}

// New creates a new activity Store over a tenant's activities collection.
func New(c tenant.Collection) *Store {
	return &Store{c: c}
}

// Record appends an activity for leadID.
func (s *Store) Record(ctx context.Context, leadID any, eventType, description, userID string) error {
	a := models.Activity{
		ID:          primitive.NewObjectID(),
		LeadID:      leadID,
		Type:        eventType,
		Description: description,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, a)
	return err
}

// ForLead returns the most recent activities for a lead, newest first.
// A hex lead id is matched both as an ObjectID and as the raw string.
func (s *Store) ForLead(ctx context.Context, leadID string, limit int64) ([]models.Activity, error) {
	ids := bson.A{leadID}
	if oid, err := primitive.ObjectIDFromHex(leadID); err == nil {
		ids = append(ids, oid)
	}
	filter := bson.M{"leadId": bson.M{"$in": ids}}
	return s.find(ctx, filter, limit)
}

// Recent returns the newest activities matching createdAt (nil = all).
func (s *Store) Recent(ctx context.Context, createdAt bson.M, limit int64) ([]models.Activity, error) {
	filter := bson.M{}
	if createdAt != nil {
		filter["createdAt"] = createdAt
	}
	return s.find(ctx, filter, limit)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
