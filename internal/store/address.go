package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/nutribox/internal/model"
)

type AddressStore struct {
	db DBTX
}

func NewAddressStore(db DBTX) *AddressStore {
	return &AddressStore{db: db}
}

func scanAddress(s scanner) (*model.Address, error) {
	var a model.Address
	err := s.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.Neighborhood, &a.City,
		&a.PostalCode, &a.Reference, &a.IsPrimary, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const addressCols = `id, user_id, label, line1, line2, neighborhood, city, postal_code, reference, is_primary, created_at, updated_at`

func (s *AddressStore) Create(ctx context.Context, a *model.Address) (*model.Address, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO addresses (user_id, label, line1, line2, neighborhood, city, postal_code, reference, is_primary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Label, a.Line1, a.Line2, a.Neighborhood, a.City, a.PostalCode, a.Reference, a.IsPrimary,
	)
	if err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AddressStore) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx, `SELECT `+addressCols+` FROM addresses WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (s *AddressStore) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressCols+` FROM addresses WHERE user_id = ? ORDER BY is_primary DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

func (s *AddressStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

func (s *AddressStore) Update(ctx context.Context, a *model.Address) (*model.Address, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET label = ?, line1 = ?, line2 = ?, neighborhood = ?, city = ?, postal_code = ?,
		 reference = ?, is_primary = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		a.Label, a.Line1, a.Line2, a.Neighborhood, a.City, a.PostalCode, a.Reference, a.IsPrimary, a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return s.GetByID(ctx, a.ID)
}

// ClearPrimary unsets is_primary on every address of the user except keepID.
func (s *AddressStore) ClearPrimary(ctx context.Context, userID, keepID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET is_primary = 0 WHERE user_id = ? AND id != ? AND is_primary = 1`, userID, keepID)
	if err != nil {
		return fmt.Errorf("clear primary address: %w", err)
	}
	return nil
}

func (s *AddressStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}
