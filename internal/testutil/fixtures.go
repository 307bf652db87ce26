package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) coll(tenantID, logical string) *mongo.Collection {
	return f.db.Collection(tenant.CollectionName(tenantID, logical))
}

// CreateTenant registers an active tenant.
func (f *Fixtures) CreateTenant(ctx context.Context, key, name string) models.Tenant {
	f.t.Helper()

	now := time.Now().UTC()
	t := models.Tenant{
		Key:       key,
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tenants").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create test tenant: %v", err)
	}
	return t
}

// CreateLead inserts lead into the tenant's lead collection. Zero ID,
// CreatedAt, and CompanyID are filled in.
func (f *Fixtures) CreateLead(ctx context.Context, tenantID string, lead models.Lead) models.Lead {
	f.t.Helper()

	if lead.Key() == "" {
		lead.ID = primitive.NewObjectID()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = lead.CreatedAt
	}
	if lead.CompanyID == "" {
		lead.CompanyID = tenantID
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}
	lead.NameCI = text.Fold(lead.Name)

	if _, err := f.coll(tenantID, tenant.Leads).InsertOne(ctx, lead); err != nil {
		f.t.Fatalf("failed to create test lead: %v", err)
	}
	return lead
}

// CreateLeads inserts n leads named "<prefix> N" in the given stage.
func (f *Fixtures) CreateLeads(ctx context.Context, tenantID, prefix, stage string, n int, createdAt time.Time) []models.Lead {
	f.t.Helper()

	out := make([]models.Lead, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.CreateLead(ctx, tenantID, models.Lead{
			Name:      prefix + " " + strconv.Itoa(i+1),
			Company:   prefix + " Co",
			Stage:     stage,
			CreatedAt: createdAt.Add(time.Duration(i) * time.Second),
		}))
	}
	return out
}

// CreateEmployee inserts an employee with the given display name.
func (f *Fixtures) CreateEmployee(ctx context.Context, tenantID, name string) models.Employee {
	f.t.Helper()

	e := models.Employee{ID: primitive.NewObjectID(), Name: name}
	if _, err := f.coll(tenantID, tenant.Employees).InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test employee: %v", err)
	}
	return e
}

// CreateClient inserts a client with the given name.
func (f *Fixtures) CreateClient(ctx context.Context, tenantID, name string) models.Client {
	f.t.Helper()

	c := models.Client{ID: primitive.NewObjectID(), Name: name}
	if _, err := f.coll(tenantID, tenant.Clients).InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}
	return c
}

// CreateActivity inserts an activity for leadID (an ObjectID or string).
func (f *Fixtures) CreateActivity(ctx context.Context, tenantID string, leadID any, typ string, at time.Time) models.Activity {
	f.t.Helper()

	a := models.Activity{
		ID:          primitive.NewObjectID(),
		LeadID:      leadID,
		Type:        typ,
		Description: typ,
		CreatedAt:   at,
	}
	if _, err := f.coll(tenantID, tenant.Activities).InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test activity: %v", err)
	}
	return a
}

// CreateTask inserts a task.
func (f *Fixtures) CreateTask(ctx context.Context, tenantID, title string, at time.Time) models.Task {
	f.t.Helper()

	task := models.Task{ID: primitive.NewObjectID(), Title: title, Status: "open", CreatedAt: at}
	if _, err := f.coll(tenantID, tenant.Tasks).InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateJobApplication inserts a job application.
func (f *Fixtures) CreateJobApplication(ctx context.Context, tenantID, candidate string, at time.Time) models.JobApplication {
	f.t.Helper()

	ja := models.JobApplication{ID: primitive.NewObjectID(), CandidateName: candidate, Status: "new", CreatedAt: at}
	if _, err := f.coll(tenantID, tenant.JobApplications).InsertOne(ctx, ja); err != nil {
		f.t.Fatalf("failed to create test job application: %v", err)
	}
	return ja
}
