package policy

import (
	"testing"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/model"
)

var (
	basic    = model.MembershipTier{Name: model.TierBasic}
	standard = model.MembershipTier{Name: model.TierStandard, MaxAddresses: 1, AllowsRestrictions: true}
	premium  = model.MembershipTier{Name: model.TierPremium, MaxAddresses: 3, AllowsCustomization: true, AllowsRestrictions: true, AllowsAdvancedStats: true}
)

func TestTierAllows(t *testing.T) {
	tests := []struct {
		tier model.MembershipTier
		cap  Capability
		want bool
	}{
		{basic, CreateLunchbox, false},
		{standard, CreateLunchbox, true},
		{premium, CreateLunchbox, true},
		{basic, CustomizeItems, false},
		{standard, CustomizeItems, false},
		{premium, CustomizeItems, true},
		{basic, ManageRestrictions, false},
		{standard, ManageRestrictions, true},
		{standard, AdvancedStats, false},
		{premium, AdvancedStats, true},
		{premium, Capability("teleport"), false},
	}
	for _, tt := range tests {
		if got := TierAllows(tt.tier, tt.cap); got != tt.want {
			t.Errorf("TierAllows(%s, %s) = %v, want %v", tt.tier.Name, tt.cap, got, tt.want)
		}
	}
}

func TestRequireTier(t *testing.T) {
	p := model.Principal{User: model.User{ID: 1}, Tier: standard}

	if err := RequireTier(p, CreateLunchbox); err != nil {
		t.Errorf("standard create: %v", err)
	}
	err := RequireTier(p, CustomizeItems)
	if !apperr.Is(err, apperr.KindPermission) {
		t.Errorf("standard customize err = %v, want permission error", err)
	}
}

func TestRequireOwner(t *testing.T) {
	p := model.Principal{User: model.User{ID: 1}}

	if err := RequireOwner(p, &model.Child{ID: 5, ParentID: 1}); err != nil {
		t.Errorf("owner: %v", err)
	}
	if err := RequireOwner(p, &model.Child{ID: 6, ParentID: 2}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("non-owner err = %v, want forbidden", err)
	}
	if err := RequireOwner(p, nil); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("nil child err = %v, want forbidden", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := model.Principal{Role: model.Role{Name: model.RoleAdmin}}
	parent := model.Principal{Role: model.Role{Name: model.RolePrimary}}

	if err := RequireAdmin(admin); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := RequireAdmin(parent); !apperr.Is(err, apperr.KindPermission) {
		t.Errorf("parent err = %v, want permission", err)
	}
}
