package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/nutribox/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.RoleID, &u.TierID, &u.Active, &u.RegisteredAt, &u.LastAccess, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, password_hash, first_name, last_name, phone, role_id, tier_id, active, registered_at, last_access, updated_at`

// Create inserts u. Emails are stored lower-cased.
func (s *UserStore) Create(ctx context.Context, u *model.User) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, phone, role_id, tier_id, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		normalizeEmail(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.RoleID, u.TierID, u.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, normalizeEmail(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UserFilter narrows List. A nil Active matches both states; Query matches
// name, last name or email.
type UserFilter struct {
	Active *bool
	Query  string
	Page   Page
}

func (s *UserStore) List(ctx context.Context, f UserFilter) ([]model.User, error) {
	var (
		conds []string
		args  []any
	)
	if f.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *f.Active)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		conds = append(conds, "(lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like)
	}
	query := `SELECT ` + userCols + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	page := f.Page.normalized()
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) UpdateProfile(ctx context.Context, u *model.User) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		u.FirstName, u.LastName, u.Phone, u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(ctx, u.ID)
}

func (s *UserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *UserStore) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

func (s *UserStore) SetTier(ctx context.Context, id, tierID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET tier_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, tierID, id)
	if err != nil {
		return fmt.Errorf("set user tier: %w", err)
	}
	return nil
}

func (s *UserStore) TouchLastAccess(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_access = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch last access: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
