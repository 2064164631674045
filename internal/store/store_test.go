package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createParent inserts a primary user on the given tier.
func createParent(t *testing.T, db *sql.DB, email string, tier model.TierName) *model.User {
	t.Helper()
	ctx := context.Background()
	refs := NewReferenceStore(db)
	role, err := refs.GetRoleByName(ctx, model.RolePrimary)
	if err != nil || role == nil {
		t.Fatalf("get role: %v", err)
	}
	tr, err := refs.GetTierByName(ctx, tier)
	if err != nil || tr == nil {
		t.Fatalf("get tier %s: %v", tier, err)
	}
	u, err := NewUserStore(db).Create(ctx, &model.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Maria",
		LastName:     "Lopez",
		RoleID:       role.ID,
		TierID:       tr.ID,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createChild(t *testing.T, db *sql.DB, parentID int64, name string) *model.Child {
	t.Helper()
	c, err := NewChildStore(db).Create(context.Background(), &model.Child{
		ParentID:  parentID,
		FirstName: name,
		LastName:  "Lopez",
		Active:    true,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return c
}

func TestPageNormalized(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Offset: 0, Limit: DefaultLimit}},
		{Page{Offset: -3, Limit: 10}, Page{Offset: 0, Limit: 10}},
		{Page{Offset: 5, Limit: 500}, Page{Offset: 5, Limit: DefaultLimit}},
	}
	for _, tt := range tests {
		if got := tt.in.normalized(); got != tt.want {
			t.Errorf("normalized(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
