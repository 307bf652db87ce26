package testutil

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrFake is returned by FakeCollection when told to fail.
var ErrFake = errors.New("fake collection failure")

// FakeCollection satisfies tenant.Collection without a server. Each
// operation consults its hook; unset hooks return empty results.
type FakeCollection struct {
	CollName    string
	FindFn      func(filter interface{}) ([]interface{}, error)
	FindOneFn   func(filter interface{}) (interface{}, error)
	AggregateFn func(pipeline interface{}) ([]interface{}, error)
	CountFn     func(filter interface{}) (int64, error)
	InsertFn    func(doc interface{}) (interface{}, error)
	UpdateFn    func(filter, update interface{}) (*mongo.UpdateResult, error)
	DeleteFn    func(filter interface{}) (*mongo.DeleteResult, error)
}

// FailingCollection returns a FakeCollection whose every operation fails.
func FailingCollection(name string) *FakeCollection {
	return &FakeCollection{
		CollName:    name,
		FindFn:      func(interface{}) ([]interface{}, error) { return nil, ErrFake },
		FindOneFn:   func(interface{}) (interface{}, error) { return nil, ErrFake },
		AggregateFn: func(interface{}) ([]interface{}, error) { return nil, ErrFake },
		CountFn:     func(interface{}) (int64, error) { return 0, ErrFake },
		InsertFn:    func(interface{}) (interface{}, error) { return nil, ErrFake },
		UpdateFn:    func(_, _ interface{}) (*mongo.UpdateResult, error) { return nil, ErrFake },
		DeleteFn:    func(interface{}) (*mongo.DeleteResult, error) { return nil, ErrFake },
	}
}

func (f *FakeCollection) Name() string { return f.CollName }

func (f *FakeCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	var docs []interface{}
	if f.FindFn != nil {
		var err error
		if docs, err = f.FindFn(filter); err != nil {
			return nil, err
		}
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *FakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	var (
		doc interface{}
		err error
	)
	if f.FindOneFn != nil {
		doc, err = f.FindOneFn(filter)
	}
	if err == nil && doc == nil {
		err = mongo.ErrNoDocuments
	}
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (f *FakeCollection) Aggregate(_ context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	var docs []interface{}
	if f.AggregateFn != nil {
		var err error
		if docs, err = f.AggregateFn(pipeline); err != nil {
			return nil, err
		}
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *FakeCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	if f.CountFn == nil {
		return 0, nil
	}
	return f.CountFn(filter)
}

func (f *FakeCollection) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.InsertFn == nil {
		return &mongo.InsertOneResult{}, nil
	}
	id, err := f.InsertFn(doc)
	if err != nil {
		return nil, err
	}
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

func (f *FakeCollection) UpdateOne(_ context.Context, filter, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if f.UpdateFn == nil {
		return &mongo.UpdateResult{}, nil
	}
	return f.UpdateFn(filter, update)
}

func (f *FakeCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.DeleteFn == nil {
		return &mongo.DeleteResult{}, nil
	}
	return f.DeleteFn(filter)
}

// FakeCollections returns a tenant whose collections are all empty fakes.
func FakeCollections(tenantID string) tenant.Collections {
	c := func(logical string) *FakeCollection {
		return &FakeCollection{CollName: tenant.CollectionName(tenantID, logical)}
	}
	return tenant.Collections{
		TenantID:        tenantID,
		Leads:           c(tenant.Leads),
		Stages:          c(tenant.Stages),
		Pipelines:       c(tenant.Pipelines),
		Activities:      c(tenant.Activities),
		Companies:       c(tenant.Companies),
		Employees:       c(tenant.Employees),
		Tasks:           c(tenant.Tasks),
		JobApplications: c(tenant.JobApplications),
		Clients:         c(tenant.Clients),
	}
}

// StaticResolver resolves every tenant id to Cols, or fails with Err.
type StaticResolver struct {
	Cols tenant.Collections
	Err  error
}

// Resolve implements tenant.Resolver.
func (s StaticResolver) Resolve(_ context.Context, tenantID string) (tenant.Collections, error) {
	if s.Err != nil {
		return tenant.Collections{}, s.Err
	}
	cols := s.Cols
	cols.TenantID = tenantID
	return cols, nil
}
