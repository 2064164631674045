package store

import (
	"context"
	"testing"

	"github.com/dukerupert/nutribox/internal/model"
)

// seededFoods is the number of catalog rows inserted by migrations.
const seededFoods = 13

func TestFoodListFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	fs := NewFoodItemStore(db)

	all, err := fs.List(ctx, FoodFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != seededFoods {
		t.Errorf("foods = %d, want %d", len(all), seededFoods)
	}

	fruit, err := fs.List(ctx, FoodFilter{Category: "fruta"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(fruit) != 3 {
		t.Errorf("fruit = %d, want 3", len(fruit))
	}

	page, err := fs.List(ctx, FoodFilter{Page: Page{Offset: 10, Limit: 5}})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != seededFoods-10 {
		t.Errorf("page = %d, want %d", len(page), seededFoods-10)
	}
}

func TestFoodSearchMatchesNameOrCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	fs := NewFoodItemStore(db)

	byName, err := fs.List(ctx, FoodFilter{Query: "MANZ", Status: model.FoodActive})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Manzana" {
		t.Errorf("search manz = %+v, want Manzana", byName)
	}

	byCategory, _ := fs.List(ctx, FoodFilter{Query: "bebi", Status: model.FoodActive})
	if len(byCategory) != 2 {
		t.Errorf("search bebi = %d, want 2", len(byCategory))
	}
}

func TestFoodSoftDeleteStaysReadable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	fs := NewFoodItemStore(db)

	f, err := fs.Create(ctx, &model.FoodItem{Name: "Mango", Category: "Fruta", Calories: 60, Protein: 0.8, Carbs: 15})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Status != model.FoodActive {
		t.Errorf("status = %q, want %q", f.Status, model.FoodActive)
	}

	if err := fs.SetStatus(ctx, f.ID, model.FoodInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := fs.GetByID(ctx, f.ID)
	if err != nil || got == nil {
		t.Fatalf("get inactive item: %v", err)
	}
	if got.Status != model.FoodInactive {
		t.Errorf("status = %q, want %q", got.Status, model.FoodInactive)
	}

	active, _ := fs.List(ctx, FoodFilter{Status: model.FoodActive, Query: "mango"})
	if len(active) != 0 {
		t.Errorf("active mango = %d, want 0", len(active))
	}

	many, err := fs.GetMany(ctx, []int64{f.ID, 1, 9999})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(many) != 2 {
		t.Errorf("get many = %d, want 2", len(many))
	}
}

func TestFoodRejectsNegativeNutrition(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewFoodItemStore(db).Create(context.Background(), &model.FoodItem{Name: "Raro", Category: "Otro", Calories: -1})
	if err == nil {
		t.Fatal("expected check constraint error for negative calories")
	}
}

func TestHistoryAppendAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	hs := NewHistoryStore(db)

	actor := "7"
	snapshot := `{"name":"Manzana"}`
	for _, action := range []model.HistoryAction{model.HistoryModified, model.HistoryDeleted, model.HistoryRestored} {
		if _, err := hs.Append(ctx, &model.HistoryEntry{FoodItemID: 1, Action: action, Actor: &actor, PriorState: &snapshot}); err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}

	entries, err := hs.ListByFoodItem(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[1].Action != model.HistoryDeleted || entries[2].Action != model.HistoryRestored {
		t.Errorf("actions = %s, %s; want Eliminado, Restaurado", entries[1].Action, entries[2].Action)
	}
	if entries[0].Actor == nil || *entries[0].Actor != "7" {
		t.Errorf("actor = %v, want 7", entries[0].Actor)
	}
	if entries[0].Reason != nil {
		t.Errorf("reason = %v, want nil", entries[0].Reason)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"manzana", "manzana"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\x`, `c:\\x`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
