// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lead is a tenant-scoped sales lead.
//
// Field names are camelCase in storage because lead collections are shared
// with records written by earlier versions of the dashboard.
//
// ID, Owner and Client are loosely typed references: older records hold an
// ObjectID, others a plain string. Render them with RefKey.
type Lead struct {
	ID           any        `bson:"_id,omitempty" json:"id"`
	Name         string     `bson:"name" json:"name"`
	NameCI       string     `bson:"nameCi,omitempty" json:"-"` // folded name for sorting
	Company      string     `bson:"company" json:"company"`
	Email        string     `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Value        Amount     `bson:"value" json:"value"`
	Stage        string     `bson:"stage" json:"stage"`
	Source       string     `bson:"source,omitempty" json:"source,omitempty"`
	Country      string     `bson:"country,omitempty" json:"country,omitempty"`
	Address      string     `bson:"address,omitempty" json:"address,omitempty"`
	Owner        any        `bson:"owner,omitempty" json:"owner,omitempty"`
	Client       any        `bson:"client,omitempty" json:"client,omitempty"`
	LostReason   string     `bson:"lostReason,omitempty" json:"lostReason,omitempty"`
	Tags         []string   `bson:"tags" json:"tags"`
	Priority     string     `bson:"priority,omitempty" json:"priority,omitempty"`
	Notes        string     `bson:"notes,omitempty" json:"notes,omitempty"`
	FollowUpDate *time.Time `bson:"followUpDate,omitempty" json:"followUpDate,omitempty"`
	DueDate      *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CompanyID    string     `bson:"companyId,omitempty" json:"companyId,omitempty"` // tenant id
	IsDeleted    bool       `bson:"isDeleted" json:"isDeleted"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Key returns the lead id as a string.
func (l Lead) Key() string {
	return RefKey(l.ID)
}

// RefKey renders a loosely typed reference (ObjectID, string, nil) as a
// string key. Unknown shapes yield "".
func RefKey(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		if t.IsZero() {
			return ""
		}
		return t.Hex()
	case *primitive.ObjectID:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Hex()
	case string:
		return t
	default:
		return ""
	}
}
