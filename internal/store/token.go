package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/nutribox/internal/model"
)

// TokenStore records issued access tokens by their jti so they can be revoked
// before they expire.
type TokenStore struct {
	db DBTX
}

func NewTokenStore(db DBTX) *TokenStore {
	return &TokenStore{db: db}
}

func scanToken(s scanner) (*model.IssuedToken, error) {
	var t model.IssuedToken
	if err := s.Scan(&t.ID, &t.JTI, &t.UserID, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

const tokenCols = `id, jti, user_id, expires_at, revoked_at, created_at`

func (s *TokenStore) Create(ctx context.Context, jti string, userID int64, expiresAt time.Time) (*model.IssuedToken, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO issued_tokens (jti, user_id, expires_at) VALUES (?, ?, ?)`,
		jti, userID, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	t, err := scanToken(s.db.QueryRowContext(ctx, `SELECT `+tokenCols+` FROM issued_tokens WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

// GetActive returns the token with the given jti when it is neither expired
// nor revoked, or nil.
func (s *TokenStore) GetActive(ctx context.Context, jti string) (*model.IssuedToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenCols+` FROM issued_tokens WHERE jti = ? AND revoked_at IS NULL AND expires_at > ?`,
		jti, time.Now().UTC(),
	)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (s *TokenStore) Revoke(ctx context.Context, jti string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE issued_tokens SET revoked_at = ? WHERE jti = ? AND revoked_at IS NULL`, time.Now().UTC(), jti)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every outstanding token of a user, e.g. after a
// password change or deactivation.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE issued_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM issued_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
