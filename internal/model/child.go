package model

import "time"

type Child struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	BirthDate   *Date     `json:"birth_date"`
	SchoolGrade string    `json:"school_grade"`
	School      string    `json:"school"`
	Notes       string    `json:"notes"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ChildPatch struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=2,max=100"`
	BirthDate   *Date   `json:"birth_date"`
	SchoolGrade *string `json:"school_grade" validate:"omitempty,max=50"`
	School      *string `json:"school" validate:"omitempty,max=150"`
	Notes       *string `json:"notes"`
	Active      *bool   `json:"active"`
}

func (p ChildPatch) Apply(c *Child) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.BirthDate != nil {
		d := *p.BirthDate
		c.BirthDate = &d
	}
	if p.SchoolGrade != nil {
		c.SchoolGrade = *p.SchoolGrade
	}
	if p.School != nil {
		c.School = *p.School
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
}
