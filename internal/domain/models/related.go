// internal/domain/models/related.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a timeline entry. LeadID follows the same loose typing as
// Lead.Owner.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LeadID      any                `bson:"leadId,omitempty" json:"leadId,omitempty"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	UserID      string             `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Task is a to-do item attached to the tenant.
type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"`
	Priority  string             `bson:"priority,omitempty" json:"priority,omitempty"`
	DueDate   *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// JobApplication is a candidate application received by the tenant.
type JobApplication struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CandidateName string             `bson:"candidateName" json:"candidateName"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Position      string             `bson:"position,omitempty" json:"position,omitempty"`
	Status        string             `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// Employee is only read for display-name lookups.
type Employee struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	FirstName string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
}

// Client is only read for display-name lookups.
type Client struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name,omitempty" json:"name,omitempty"`
	Company string             `bson:"company,omitempty" json:"company,omitempty"`
}
