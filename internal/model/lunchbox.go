package model

import "time"

type LunchboxStatus string

const (
	LunchboxDraft      LunchboxStatus = "Borrador"
	LunchboxAssigned   LunchboxStatus = "Asignada"
	LunchboxCustomized LunchboxStatus = "Personalizada"
	LunchboxConfirmed  LunchboxStatus = "Confirmada"
	LunchboxArchived   LunchboxStatus = "Archivada"
	LunchboxDeleted    LunchboxStatus = "Eliminada"
)

// lunchboxRank orders the forward-only part of the lifecycle.
var lunchboxRank = map[LunchboxStatus]int{
	LunchboxDraft:      0,
	LunchboxAssigned:   1,
	LunchboxCustomized: 2,
	LunchboxConfirmed:  3,
}

func (s LunchboxStatus) Valid() bool {
	_, ok := lunchboxRank[s]
	return ok || s == LunchboxArchived || s == LunchboxDeleted
}

// Terminal reports whether no transition can leave s.
func (s LunchboxStatus) Terminal() bool {
	return s == LunchboxArchived || s == LunchboxDeleted
}

// Editable reports whether line items may still change.
func (s LunchboxStatus) Editable() bool {
	return s == LunchboxDraft || s == LunchboxAssigned || s == LunchboxCustomized
}

// CanTransitionTo reports whether moving from s to next is legal. Staying in
// the same state is always allowed.
func (s LunchboxStatus) CanTransitionTo(next LunchboxStatus) bool {
	if s == next {
		return s.Valid()
	}
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next.Terminal() {
		return true
	}
	return lunchboxRank[next] > lunchboxRank[s]
}

type Lunchbox struct {
	ID             int64          `json:"id"`
	ChildID        int64          `json:"child_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AssignmentDate Date           `json:"assignment_date"`
	Status         LunchboxStatus `json:"status"`
	IsDefault      bool           `json:"is_default"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type LineItem struct {
	ID         int64  `json:"id"`
	LunchboxID int64  `json:"lunchbox_id"`
	FoodItemID int64  `json:"food_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

// LunchboxPatch holds the optional fields of a partial lunchbox update.
type LunchboxPatch struct {
	Name           *string         `json:"name" validate:"omitempty,min=2,max=100"`
	Description    *string         `json:"description"`
	AssignmentDate *Date           `json:"assignment_date"`
	Status         *LunchboxStatus `json:"status"`
	IsDefault      *bool           `json:"is_default"`
}

// Empty reports whether the patch changes nothing.
func (p LunchboxPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.AssignmentDate == nil && p.Status == nil && p.IsDefault == nil
}

func (p LunchboxPatch) Apply(l *Lunchbox) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.AssignmentDate != nil {
		l.AssignmentDate = *p.AssignmentDate
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.IsDefault != nil {
		l.IsDefault = *p.IsDefault
	}
}
