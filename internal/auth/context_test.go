package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/nutribox/internal/model"
)

func principal(id int64, role model.RoleName, tier model.TierName) model.Principal {
	return model.Principal{
		User: model.User{ID: id},
		Role: model.Role{Name: role},
		Tier: model.MembershipTier{Name: tier},
	}
}

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		Principal: principal(1, model.RolePrimary, model.TierPremium),
		TokenID:   "abc",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.Principal.ID() != 1 {
		t.Errorf("UserID = %d, want 1", got.Principal.ID())
	}
	if got.Principal.Tier.Name != model.TierPremium {
		t.Errorf("Tier = %q, want %q", got.Principal.Tier.Name, model.TierPremium)
	}
	if got.TokenID != "abc" {
		t.Errorf("TokenID = %q, want %q", got.TokenID, "abc")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
	if _, ok := Principal(context.Background()); ok {
		t.Error("expected no principal for anonymous context")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Principal: principal(7, model.RolePrimary, model.TierBasic)})
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Principal: principal(1, model.RoleAdmin, model.TierPremium)})
	if !IsAdmin(ctx) {
		t.Error("expected IsAdmin = true for admin role")
	}

	ctx = WithAuth(context.Background(), AuthContext{Principal: principal(2, model.RolePrimary, model.TierPremium)})
	if IsAdmin(ctx) {
		t.Error("expected IsAdmin = false for primary user")
	}

	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}
