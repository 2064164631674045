// Package policy decides what an authenticated principal may do. Callers
// apply the checks in a fixed order: tier gate, then load the target, then
// ownership, then nested references.
package policy

import (
	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/model"
)

type Capability string

const (
	CreateLunchbox     Capability = "create_lunchbox"
	CustomizeItems     Capability = "customize_items"
	ManageRestrictions Capability = "manage_restrictions"
	AdvancedStats      Capability = "advanced_stats"
)

// TierAllows reports whether tier unlocks capability.
func TierAllows(tier model.MembershipTier, c Capability) bool {
	switch c {
	case CreateLunchbox:
		return tier.Name != model.TierBasic
	case CustomizeItems:
		return tier.AllowsCustomization
	case ManageRestrictions:
		return tier.AllowsRestrictions
	case AdvancedStats:
		return tier.AllowsAdvancedStats
	default:
		return false
	}
}

var capabilityMessages = map[Capability]string{
	CreateLunchbox:     "your membership does not allow creating lunchboxes",
	CustomizeItems:     "your membership does not allow customizing lunchbox items",
	ManageRestrictions: "your membership does not allow managing dietary restrictions",
	AdvancedStats:      "your membership does not include advanced statistics",
}

// RequireTier returns a permission error when p's tier lacks c.
func RequireTier(p model.Principal, c Capability) error {
	if TierAllows(p.Tier, c) {
		return nil
	}
	msg, ok := capabilityMessages[c]
	if !ok {
		msg = "your membership does not allow this action"
	}
	return apperr.Permission("%s", msg)
}

// RequireOwner returns a forbidden error unless p is the child's parent.
func RequireOwner(p model.Principal, child *model.Child) error {
	if child != nil && child.ParentID == p.ID() {
		return nil
	}
	return apperr.Forbidden("you do not have access to this child")
}

// RequireAdmin returns a permission error unless p holds the admin role.
func RequireAdmin(p model.Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperr.Permission("administrator role required")
}
