package store

import (
	"context"
	"testing"

	"github.com/dukerupert/nutribox/internal/model"
)

func TestAddressPrimary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	as := NewAddressStore(db)
	u := createParent(t, db, "maria@example.com", model.TierPremium)

	home, err := as.Create(ctx, &model.Address{UserID: u.ID, Label: "Casa", Line1: "Calle 10 # 20-30", City: "Bogota", IsPrimary: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	work, err := as.Create(ctx, &model.Address{UserID: u.ID, Label: "Trabajo", Line1: "Carrera 7 # 45-10", City: "Bogota"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	work.IsPrimary = true
	if _, err := as.Update(ctx, work); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := as.ClearPrimary(ctx, u.ID, work.ID); err != nil {
		t.Fatalf("clear primary: %v", err)
	}

	list, err := as.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("addresses = %d, want 2", len(list))
	}
	if list[0].ID != work.ID || !list[0].IsPrimary {
		t.Errorf("first address = %+v, want primary work address", list[0])
	}
	if got, _ := as.GetByID(ctx, home.ID); got.IsPrimary {
		t.Error("expected home to lose primary flag")
	}

	n, err := as.CountByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
