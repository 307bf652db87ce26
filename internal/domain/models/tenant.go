package models

import "time"

// Tenant is a registered company. Its Key is the prefix of every
// collection that holds the tenant's records (e.g. "acme_leads").
type Tenant struct {
	Key    string `bson:"_id" json:"key"`
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"`

	// Status: "active" or "disabled"
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
