// Package tenant resolves a tenant id to the handles of that tenant's
// collections and carries the caller's tenant through a context.
//
// Each tenant's records live in their own collections inside one
// database, named "<tenant>_<logical>" (e.g. "acme_leads").
package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dalemusser/stratacrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Logical collection names.
const (
	Leads           = "leads"
	Stages          = "stages"
	Pipelines       = "pipelines"
	Activities      = "activities"
	Companies       = "companies"
	Employees       = "employees"
	Tasks           = "tasks"
	JobApplications = "jobApplications"
	Clients         = "clients"
)

var (
	ErrInvalidID = errors.New("invalid tenant id")
	ErrInactive  = errors.New("tenant is not active")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id can be used as a collection prefix.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// CollectionName returns the physical collection name for a tenant.
func CollectionName(tenantID, logical string) string {
	return tenantID + "_" + logical
}

// Collection is the subset of *mongo.Collection the service uses.
// Tests substitute fakes built on mongo.NewCursorFromDocuments.
type Collection interface {
	Name() string
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Collections holds one tenant's collection handles.
type Collections struct {
	TenantID        string
	Leads           Collection
	Stages          Collection
	Pipelines       Collection
	Activities      Collection
	Companies       Collection
	Employees       Collection
	Tasks           Collection
	JobApplications Collection
	Clients         Collection
}

// Resolver returns a tenant's collections.
type Resolver interface {
	Resolve(ctx context.Context, tenantID string) (Collections, error)
}

// Registry looks up registered tenants.
type Registry interface {
	GetByKey(ctx context.Context, key string) (models.Tenant, error)
}

// MongoResolver resolves tenants against a single database. When Registry
// is set, the tenant must be registered and active.
type MongoResolver struct {
	DB       *mongo.Database
	Registry Registry
}

// NewMongoResolver constructs a MongoResolver.
func NewMongoResolver(db *mongo.Database, reg Registry) *MongoResolver {
	return &MongoResolver{DB: db, Registry: reg}
}

// Resolve implements Resolver.
func (r *MongoResolver) Resolve(ctx context.Context, tenantID string) (Collections, error) {
	if !ValidID(tenantID) {
		return Collections{}, fmt.Errorf("%w: %q", ErrInvalidID, tenantID)
	}
	if r.Registry != nil {
		t, err := r.Registry.GetByKey(ctx, tenantID)
		if err != nil {
			return Collections{}, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
		}
		if t.Status != "active" {
			return Collections{}, fmt.Errorf("resolve tenant %s: %w", tenantID, ErrInactive)
		}
	}
	return For(r.DB, tenantID), nil
}

// For returns the collection handles for tenantID without any checks.
func For(db *mongo.Database, tenantID string) Collections {
	c := func(logical string) Collection {
		return db.Collection(CollectionName(tenantID, logical))
	}
	return Collections{
		TenantID:        tenantID,
		Leads:           c(Leads),
		Stages:          c(Stages),
		Pipelines:       c(Pipelines),
		Activities:      c(Activities),
		Companies:       c(Companies),
		Employees:       c(Employees),
		Tasks:           c(Tasks),
		JobApplications: c(JobApplications),
		Clients:         c(Clients),
	}
}

type ctxKey string

const infoKey ctxKey = "tenant"

// Info identifies the caller of a request.
type Info struct {
	TenantID string
	UserID   string
}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext returns the caller info stored in ctx.
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey).(Info)
	return info, ok
}
