package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/nutribox/internal/model"
)

// ReferenceStore reads the seeded roles and membership tiers.
type ReferenceStore struct {
	db DBTX
}

func NewReferenceStore(db DBTX) *ReferenceStore {
	return &ReferenceStore{db: db}
}

func scanRole(s scanner) (*model.Role, error) {
	var r model.Role
	if err := s.Scan(&r.ID, &r.Name, &r.Description); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanTier(s scanner) (*model.MembershipTier, error) {
	var t model.MembershipTier
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.MaxAddresses,
		&t.AllowsCustomization, &t.AllowsRestrictions, &t.AllowsAdvancedStats, &t.MonthlyPrice)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const roleCols = `id, name, description`
const tierCols = `id, name, description, max_addresses, allows_customization, allows_restrictions, allows_advanced_stats, monthly_price`

func (s *ReferenceStore) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleCols+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

func (s *ReferenceStore) GetRole(ctx context.Context, id int64) (*model.Role, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx, `SELECT `+roleCols+` FROM roles WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return r, nil
}

func (s *ReferenceStore) GetRoleByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx, `SELECT `+roleCols+` FROM roles WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return r, nil
}

func (s *ReferenceStore) ListTiers(ctx context.Context) ([]model.MembershipTier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tierCols+` FROM membership_tiers ORDER BY monthly_price, id`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.MembershipTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, *t)
	}
	return tiers, rows.Err()
}

func (s *ReferenceStore) GetTier(ctx context.Context, id int64) (*model.MembershipTier, error) {
	t, err := scanTier(s.db.QueryRowContext(ctx, `SELECT `+tierCols+` FROM membership_tiers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return t, nil
}

func (s *ReferenceStore) GetTierByName(ctx context.Context, name model.TierName) (*model.MembershipTier, error) {
	t, err := scanTier(s.db.QueryRowContext(ctx, `SELECT `+tierCols+` FROM membership_tiers WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tier by name: %w", err)
	}
	return t, nil
}
