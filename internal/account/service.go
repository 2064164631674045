// Package account manages users, their membership, sessions, children,
// addresses and dietary restrictions.
package account

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/auth"
	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
)

type Service struct {
	db     *sql.DB
	tokens *auth.TokenIssuer
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

func NewService(db *sql.DB, tokens *auth.TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		tokens: tokens,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Phone     string `json:"phone" validate:"max=20"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        model.User `json:"user"`
}

// Register creates a primary user on the Basic tier.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return s.createUser(ctx, in, model.RolePrimary, model.TierBasic)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role model.RoleName, tier model.TierName) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	refs := store.NewReferenceStore(s.db)
	r, err := refs.GetRoleByName(ctx, role)
	if err != nil {
		return nil, err
	}
	t, err := refs.GetTierByName(ctx, tier)
	if err != nil {
		return nil, err
	}
	if r == nil || t == nil {
		return nil, errors.New("reference data missing: run migrations")
	}

	u, err := store.NewUserStore(s.db).Create(ctx, &model.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        in.Phone,
		RoleID:       r.ID,
		TierID:       t.ID,
		Active:       true,
	})
	if store.IsUniqueViolation(err) {
		return nil, apperr.Conflict("email %s is already registered", strings.ToLower(in.Email))
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", role, "tier", tier)
	return u, nil
}

// EnsureAdmin creates an administrator with email when no user has it yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := store.NewUserStore(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.createUser(ctx, RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		LastName:  "NutriBox",
	}, model.RoleAdmin, model.TierPremium)
	return err
}

// Authenticate checks credentials and records the access time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	users := store.NewUserStore(s.db)
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !u.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}

	now := s.now()
	if err := users.TouchLastAccess(ctx, u.ID, now); err != nil {
		return nil, err
	}
	at := now.UTC()
	u.LastAccess = &at
	return u, nil
}

// Login authenticates and issues a bearer token recorded for revocation.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	issued, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	if _, err := store.NewTokenStore(s.db).Create(ctx, issued.ID, u.ID, issued.ExpiresAt); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return &Session{
		AccessToken: issued.Token,
		TokenType:   "bearer",
		ExpiresAt:   issued.ExpiresAt,
		User:        *u,
	}, nil
}

// Logout revokes the token with id jti.
func (s *Service) Logout(ctx context.Context, jti string) error {
	return store.NewTokenStore(s.db).Revoke(ctx, jti)
}

// ResolveToken verifies a bearer token and loads the principal it belongs
// to. Revoked tokens and inactive users are rejected.
func (s *Service) ResolveToken(ctx context.Context, raw string) (auth.AuthContext, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return auth.AuthContext{}, apperr.Unauthorized("invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return auth.AuthContext{}, apperr.Unauthorized("invalid or expired token")
	}

	tok, err := store.NewTokenStore(s.db).GetActive(ctx, claims.ID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if tok == nil || tok.UserID != userID {
		return auth.AuthContext{}, apperr.Unauthorized("token has been revoked")
	}

	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return auth.AuthContext{}, apperr.Unauthorized("user no longer exists")
		}
		return auth.AuthContext{}, err
	}
	if !p.User.Active {
		return auth.AuthContext{}, apperr.Unauthorized("account is deactivated")
	}
	return auth.AuthContext{Principal: p, TokenID: claims.ID}, nil
}

// LoadPrincipal returns the user with the role and tier policy decisions use.
func (s *Service) LoadPrincipal(ctx context.Context, userID int64) (model.Principal, error) {
	u, err := store.NewUserStore(s.db).GetByID(ctx, userID)
	if err != nil {
		return model.Principal{}, err
	}
	if u == nil {
		return model.Principal{}, apperr.NotFound("user %d not found", userID)
	}

	refs := store.NewReferenceStore(s.db)
	role, err := refs.GetRole(ctx, u.RoleID)
	if err != nil {
		return model.Principal{}, err
	}
	tier, err := refs.GetTier(ctx, u.TierID)
	if err != nil {
		return model.Principal{}, err
	}
	if role == nil || tier == nil {
		return model.Principal{}, errors.New("user references missing role or tier")
	}
	return model.Principal{User: *u, Role: *role, Tier: *tier}, nil
}

// CleanupTokens deletes expired token records.
func (s *Service) CleanupTokens(ctx context.Context) (int64, error) {
	return store.NewTokenStore(s.db).DeleteExpired(ctx)
}

func (s *Service) UpdateProfile(ctx context.Context, actor model.Principal, patch model.UserPatch) (*model.User, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	users := store.NewUserStore(s.db)
	u, err := users.GetByID(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", actor.ID())
	}
	patch.Apply(u)
	return users.UpdateProfile(ctx, u)
}

type PasswordChange struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword replaces the password and revokes every issued token.
func (s *Service) ChangePassword(ctx context.Context, actor model.Principal, in PasswordChange) error {
	if err := validate.Struct(in); err != nil {
		return err
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)
		u, err := users.GetByID(ctx, actor.ID())
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFound("user %d not found", actor.ID())
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Current)); err != nil {
			return apperr.Validation("current password is incorrect")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.New), s.cost)
		if err != nil {
			return err
		}
		if err := users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
			return err
		}
		return store.NewTokenStore(tx).RevokeAllForUser(ctx, u.ID)
	})
}

type UserFilter struct {
	Active *bool
	Query  string
	Page   store.Page
}

func (s *Service) ListUsers(ctx context.Context, actor model.Principal, f UserFilter) ([]model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := store.NewUserStore(s.db).List(ctx, store.UserFilter{Active: f.Active, Query: f.Query, Page: f.Page})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Deactivate disables a user and revokes their sessions.
func (s *Service) Deactivate(ctx context.Context, actor model.Principal, userID int64) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.ID() {
		return nil, apperr.Conflict("you cannot deactivate your own account")
	}
	return s.setActive(ctx, userID, false)
}

func (s *Service) Activate(ctx context.Context, actor model.Principal, userID int64) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.setActive(ctx, userID, true)
}

func (s *Service) setActive(ctx context.Context, userID int64, active bool) (*model.User, error) {
	var u *model.User
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)
		var err error
		u, err = users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFound("user %d not found", userID)
		}
		if err := users.SetActive(ctx, userID, active); err != nil {
			return err
		}
		if !active {
			if err := store.NewTokenStore(tx).RevokeAllForUser(ctx, userID); err != nil {
				return err
			}
		}
		u, err = users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user active changed", "user_id", userID, "active", active)
	return u, nil
}

// SetTier moves a user to the named membership tier.
func (s *Service) SetTier(ctx context.Context, actor model.Principal, userID int64, tier model.TierName) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	t, err := store.NewReferenceStore(s.db).GetTierByName(ctx, tier)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.Validation("membership tier %q does not exist", tier)
	}

	users := store.NewUserStore(s.db)
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	if err := users.SetTier(ctx, userID, t.ID); err != nil {
		return nil, err
	}
	s.logger.Info("user tier changed", "user_id", userID, "tier", t.Name)
	return users.GetByID(ctx, userID)
}

func (s *Service) ListTiers(ctx context.Context) ([]model.MembershipTier, error) {
	return store.NewReferenceStore(s.db).ListTiers(ctx)
}

func (s *Service) ListRoles(ctx context.Context) ([]model.Role, error) {
	return store.NewReferenceStore(s.db).ListRoles(ctx)
}
