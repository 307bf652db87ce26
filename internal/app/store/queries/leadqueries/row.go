// Package leadqueries builds the read queries behind the leads list, the
// kanban grid, the detail view and exports.
package leadqueries

import (
	"time"

	"github.com/dalemusser/stratacrm/internal/domain/models"
)

// Placeholders used when a stored field is missing.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

// LeadRow is the display projection of a lead. Every string field is
// populated; missing values carry a placeholder.
type LeadRow struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Company      string     `json:"company"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Value        float64    `json:"value"`
	Stage        string     `json:"stage"`
	Source       string     `json:"source"`
	Country      string     `json:"country"`
	Address      string     `json:"address"`
	Owner        string     `json:"owner"`
	Client       string     `json:"client"`
	Priority     string     `json:"priority"`
	LostReason   string     `json:"lostReason"`
	Tags         []string   `json:"tags"`
	Notes        string     `json:"notes"`
	FollowUpDate *time.Time `json:"followUpDate"`
	DueDate      *time.Time `json:"dueDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ToRow reshapes a stored lead into its display projection.
func ToRow(l models.Lead) LeadRow {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadRow{
		ID:           l.Key(),
		Name:         or(l.Name, NotAvailable),
		Company:      or(l.Company, NotAvailable),
		Email:        or(l.Email, NotAvailable),
		Phone:        or(l.Phone, NotAvailable),
		Value:        l.Value.Float64(),
		Stage:        or(l.Stage, Unknown),
		Source:       or(l.Source, Unknown),
		Country:      or(l.Country, Unknown),
		Address:      or(l.Address, NotAvailable),
		Owner:        or(models.RefKey(l.Owner), NotAvailable),
		Client:       or(models.RefKey(l.Client), NotAvailable),
		Priority:     or(l.Priority, NotAvailable),
		LostReason:   or(l.LostReason, NotAvailable),
		Tags:         tags,
		Notes:        l.Notes,
		FollowUpDate: l.FollowUpDate,
		DueDate:      l.DueDate,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// ToRows reshapes a slice of leads. The result is never nil.
func ToRows(leads []models.Lead) []LeadRow {
	out := make([]LeadRow, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToRow(l))
	}
	return out
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
