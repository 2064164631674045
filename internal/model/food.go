package model

import "time"

type FoodStatus string

const (
	FoodActive   FoodStatus = "Activo"
	FoodInactive FoodStatus = "Inactivo"
)

type FoodItem struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	Fiber       float64    `json:"fiber"`
	Status      FoodStatus `json:"status"`
	ImageURL    string     `json:"image_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type FoodItemPatch struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Category    *string  `json:"category" validate:"omitempty,min=1,max=50"`
	Description *string  `json:"description"`
	Calories    *float64 `json:"calories" validate:"omitempty,gte=0"`
	Protein     *float64 `json:"protein" validate:"omitempty,gte=0"`
	Carbs       *float64 `json:"carbs" validate:"omitempty,gte=0"`
	Fat         *float64 `json:"fat" validate:"omitempty,gte=0"`
	Fiber       *float64 `json:"fiber" validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=500"`
}

func (p FoodItemPatch) Apply(f *FoodItem) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Calories != nil {
		f.Calories = *p.Calories
	}
	if p.Protein != nil {
		f.Protein = *p.Protein
	}
	if p.Carbs != nil {
		f.Carbs = *p.Carbs
	}
	if p.Fat != nil {
		f.Fat = *p.Fat
	}
	if p.Fiber != nil {
		f.Fiber = *p.Fiber
	}
	if p.ImageURL != nil {
		f.ImageURL = *p.ImageURL
	}
}

type HistoryAction string

const (
	HistoryCreated  HistoryAction = "Creado"
	HistoryModified HistoryAction = "Modificado"
	HistoryDeleted  HistoryAction = "Eliminado"
	HistoryRestored HistoryAction = "Restaurado"
)

// HistoryEntry is an append-only audit record for a catalog change.
// PriorState holds a JSON snapshot of the fields before the change.
type HistoryEntry struct {
	ID         int64         `json:"id"`
	FoodItemID int64         `json:"food_item_id"`
	Action     HistoryAction `json:"action"`
	Actor      *string       `json:"actor"`
	PriorState *string       `json:"prior_state"`
	Reason     *string       `json:"reason"`
	CreatedAt  time.Time     `json:"created_at"`
}
