package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/nutribox/internal/model"
)

type RestrictionStore struct {
	db DBTX
}

func NewRestrictionStore(db DBTX) *RestrictionStore {
	return &RestrictionStore{db: db}
}

func scanRestriction(s scanner) (*model.Restriction, error) {
	var r model.Restriction
	err := s.Scan(&r.ID, &r.ChildID, &r.Kind, &r.Description, &r.Severity, &r.Active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanException(s scanner) (*model.RestrictionException, error) {
	var e model.RestrictionException
	err := s.Scan(&e.ID, &e.RestrictionID, &e.Reason, &e.StartDate, &e.EndDate, &e.AuthorizedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const restrictionCols = `id, child_id, kind, description, severity, active, created_at`
const exceptionCols = `id, restriction_id, reason, start_date, end_date, authorized_by, created_at`

func (s *RestrictionStore) Create(ctx context.Context, r *model.Restriction) (*model.Restriction, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO restrictions (child_id, kind, description, severity, active) VALUES (?, ?, ?, ?, ?)`,
		r.ChildID, r.Kind, r.Description, r.Severity, r.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("insert restriction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RestrictionStore) GetByID(ctx context.Context, id int64) (*model.Restriction, error) {
	r, err := scanRestriction(s.db.QueryRowContext(ctx, `SELECT `+restrictionCols+` FROM restrictions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get restriction: %w", err)
	}
	return r, nil
}

func (s *RestrictionStore) ListByChild(ctx context.Context, childID int64) ([]model.Restriction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+restrictionCols+` FROM restrictions WHERE child_id = ? ORDER BY id`, childID)
	if err != nil {
		return nil, fmt.Errorf("list restrictions: %w", err)
	}
	defer rows.Close()

	var restrictions []model.Restriction
	for rows.Next() {
		r, err := scanRestriction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restriction: %w", err)
		}
		restrictions = append(restrictions, *r)
	}
	return restrictions, rows.Err()
}

func (s *RestrictionStore) Update(ctx context.Context, r *model.Restriction) (*model.Restriction, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE restrictions SET kind = ?, description = ?, severity = ?, active = ? WHERE id = ?`,
		r.Kind, r.Description, r.Severity, r.Active, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update restriction: %w", err)
	}
	return s.GetByID(ctx, r.ID)
}

// Delete removes a restriction and, by cascade, its exceptions.
func (s *RestrictionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM restrictions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete restriction: %w", err)
	}
	return nil
}

func (s *RestrictionStore) CreateException(ctx context.Context, e *model.RestrictionException) (*model.RestrictionException, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO restriction_exceptions (restriction_id, reason, start_date, end_date, authorized_by)
		 VALUES (?, ?, ?, ?, ?)`,
		e.RestrictionID, e.Reason, e.StartDate, e.EndDate, e.AuthorizedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exception: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	created, err := scanException(s.db.QueryRowContext(ctx,
		`SELECT `+exceptionCols+` FROM restriction_exceptions WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get exception: %w", err)
	}
	return created, nil
}

func (s *RestrictionStore) ListExceptions(ctx context.Context, restrictionID int64) ([]model.RestrictionException, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exceptionCols+` FROM restriction_exceptions WHERE restriction_id = ? ORDER BY start_date, id`,
		restrictionID)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []model.RestrictionException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		exceptions = append(exceptions, *e)
	}
	return exceptions, rows.Err()
}
