package model

import "time"

type Address struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Label        string    `json:"label"`
	Line1        string    `json:"line1"`
	Line2        string    `json:"line2"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Reference    string    `json:"reference"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AddressPatch struct {
	Label        *string `json:"label" validate:"omitempty,max=50"`
	Line1        *string `json:"line1" validate:"omitempty,min=5,max=200"`
	Line2        *string `json:"line2" validate:"omitempty,max=200"`
	Neighborhood *string `json:"neighborhood" validate:"omitempty,max=100"`
	City         *string `json:"city" validate:"omitempty,min=2,max=100"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,max=20"`
	Reference    *string `json:"reference"`
	IsPrimary    *bool   `json:"is_primary"`
}

func (p AddressPatch) Apply(a *Address) {
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Line1 != nil {
		a.Line1 = *p.Line1
	}
	if p.Line2 != nil {
		a.Line2 = *p.Line2
	}
	if p.Neighborhood != nil {
		a.Neighborhood = *p.Neighborhood
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.Reference != nil {
		a.Reference = *p.Reference
	}
	if p.IsPrimary != nil {
		a.IsPrimary = *p.IsPrimary
	}
}
