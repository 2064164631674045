package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/nutribox/internal/model"
)

type ChildStore struct {
	db DBTX
}

func NewChildStore(db DBTX) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(s scanner) (*model.Child, error) {
	var c model.Child
	err := s.Scan(&c.ID, &c.ParentID, &c.FirstName, &c.LastName, &c.BirthDate, &c.SchoolGrade,
		&c.School, &c.Notes, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const childCols = `id, parent_id, first_name, last_name, birth_date, school_grade, school, notes, active, created_at, updated_at`

func (s *ChildStore) Create(ctx context.Context, c *model.Child) (*model.Child, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO children (parent_id, first_name, last_name, birth_date, school_grade, school, notes, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ParentID, c.FirstName, c.LastName, c.BirthDate, c.SchoolGrade, c.School, c.Notes, c.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChildStore) GetByID(ctx context.Context, id int64) (*model.Child, error) {
	c, err := scanChild(s.db.QueryRowContext(ctx, `SELECT `+childCols+` FROM children WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) ListByParent(ctx context.Context, parentID int64) ([]model.Child, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+childCols+` FROM children WHERE parent_id = ? ORDER BY first_name, id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

// Update writes every mutable field of c. ParentID is never changed.
func (s *ChildStore) Update(ctx context.Context, c *model.Child) (*model.Child, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE children SET first_name = ?, last_name = ?, birth_date = ?, school_grade = ?, school = ?,
		 notes = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.FirstName, c.LastName, c.BirthDate, c.SchoolGrade, c.School, c.Notes, c.Active, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

// Delete removes a child. Its lunchboxes and restrictions cascade.
func (s *ChildStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}
