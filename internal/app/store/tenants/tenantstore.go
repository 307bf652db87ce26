// internal/app/store/tenants/tenantstore.go
package tenantstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacrm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateKey = errors.New("a tenant with this key already exists")
	ErrNotFound     = errors.New("tenant not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tenants")}
}

// Create registers a tenant. The key must already be validated by the caller.
func (s *Store) Create(ctx context.Context, t models.Tenant) (models.Tenant, error) {
	now := time.Now().UTC()
	t.NameCI = text.Fold(t.Name)
	if t.Status == "" {
		t.Status = StatusActive
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, t)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Tenant{}, ErrDuplicateKey
		}
		return models.Tenant{}, err
	}
	return t, nil
}

// GetByKey retrieves a tenant by its key.
func (s *Store) GetByKey(ctx context.Context, key string) (models.Tenant, error) {
	var t models.Tenant
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Tenant{}, ErrNotFound
		}
		return models.Tenant{}, err
	}
	return t, nil
}

// ListActive returns all active tenants ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Tenant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": StatusActive}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tenants []models.Tenant
	if err := cur.All(ctx, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// EnsureIndexes creates indexes for the tenants collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_tenant_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tenant_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
