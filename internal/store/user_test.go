package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/nutribox/internal/model"
)

func TestUserCreateLowercasesEmail(t *testing.T) {
	db := setupTestDB(t)
	u := createParent(t, db, "Maria@Example.com", model.TierBasic)

	if u.Email != "maria@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "maria@example.com")
	}
	if !u.Active {
		t.Error("expected user to be active")
	}
	if u.LastAccess != nil {
		t.Error("expected nil last access for a new user")
	}

	got, err := NewUserStore(db).GetByEmail(context.Background(), "MARIA@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by email = %+v, want id %d", got, u.ID)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	first := createParent(t, db, "maria@example.com", model.TierBasic)

	_, err := NewUserStore(db).Create(context.Background(), &model.User{
		Email: "maria@example.com", PasswordHash: "x", FirstName: "Otra", LastName: "Persona",
		RoleID: first.RoleID, TierID: first.TierID, Active: true,
	})
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	u, err := NewUserStore(db).GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserSetActiveAndTouch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	us := NewUserStore(db)
	u := createParent(t, db, "maria@example.com", model.TierBasic)

	if err := us.SetActive(ctx, u.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := us.TouchLastAccess(ctx, u.ID, at); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, _ := us.GetByID(ctx, u.ID)
	if got.Active {
		t.Error("expected inactive user")
	}
	if got.LastAccess == nil || !got.LastAccess.Equal(at) {
		t.Errorf("last access = %v, want %v", got.LastAccess, at)
	}
}

func TestUserListFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	us := NewUserStore(db)
	a := createParent(t, db, "ana@example.com", model.TierBasic)
	createParent(t, db, "beto@example.com", model.TierPremium)
	us.SetActive(ctx, a.ID, false)

	active := true
	users, err := us.List(ctx, UserFilter{Active: &active})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].Email != "beto@example.com" {
		t.Errorf("active users = %+v, want only beto", users)
	}

	users, err = us.List(ctx, UserFilter{Query: "ANA@"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].ID != a.ID {
		t.Errorf("search results = %d, want ana", len(users))
	}
}

func TestReferenceTiers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	refs := NewReferenceStore(db)

	tiers, err := refs.ListTiers(ctx)
	if err != nil {
		t.Fatalf("list tiers: %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(tiers))
	}
	if tiers[0].Name != model.TierBasic || tiers[2].Name != model.TierPremium {
		t.Errorf("tier order = %s..%s, want Básico..Premium", tiers[0].Name, tiers[2].Name)
	}

	premium, _ := refs.GetTierByName(ctx, model.TierPremium)
	if !premium.AllowsCustomization || !premium.AllowsAdvancedStats || premium.MaxAddresses != 3 {
		t.Errorf("premium = %+v", premium)
	}
	standard, _ := refs.GetTierByName(ctx, model.TierStandard)
	if standard.AllowsCustomization || !standard.AllowsRestrictions {
		t.Errorf("standard = %+v", standard)
	}

	roles, err := refs.ListRoles(ctx)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 3 || roles[0].Name != model.RoleAdmin {
		t.Errorf("roles = %+v", roles)
	}
}
