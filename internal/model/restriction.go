package model

import "time"

type RestrictionKind string

const (
	RestrictionAllergy     RestrictionKind = "Alergia"
	RestrictionIntolerance RestrictionKind = "Intolerancia"
	RestrictionPreference  RestrictionKind = "Preferencia"
)

type Severity string

const (
	SeverityHigh   Severity = "Alta"
	SeverityMedium Severity = "Media"
	SeverityLow    Severity = "Baja"
)

type Restriction struct {
	ID          int64           `json:"id"`
	ChildID     int64           `json:"child_id"`
	Kind        RestrictionKind `json:"kind"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RestrictionPatch struct {
	Kind        *RestrictionKind `json:"kind" validate:"omitempty,oneof=Alergia Intolerancia Preferencia"`
	Description *string          `json:"description" validate:"omitempty,min=2"`
	Severity    *Severity        `json:"severity" validate:"omitempty,oneof=Alta Media Baja"`
	Active      *bool            `json:"active"`
}

func (p RestrictionPatch) Apply(r *Restriction) {
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Severity != nil {
		r.Severity = *p.Severity
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
}

// RestrictionException temporarily lifts a restriction between StartDate and
// EndDate (open-ended when EndDate is nil).
type RestrictionException struct {
	ID            int64     `json:"id"`
	RestrictionID int64     `json:"restriction_id"`
	Reason        string    `json:"reason"`
	StartDate     Date      `json:"start_date"`
	EndDate       *Date     `json:"end_date"`
	AuthorizedBy  string    `json:"authorized_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Covers reports whether the exception is in effect on day.
func (e RestrictionException) Covers(day Date) bool {
	if day.Before(e.StartDate) {
		return false
	}
	return e.EndDate == nil || !day.After(*e.EndDate)
}
