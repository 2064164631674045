package model

import "time"

type RoleName string

const (
	RoleAdmin     RoleName = "Administrador"
	RolePrimary   RoleName = "Usuario Principal"
	RoleSecondary RoleName = "Usuario Secundario"
)

type Role struct {
	ID          int64    `json:"id"`
	Name        RoleName `json:"name"`
	Description string   `json:"description"`
}

type TierName string

const (
	TierBasic    TierName = "Básico"
	TierStandard TierName = "Estándar"
	TierPremium  TierName = "Premium"
)

// MembershipTier is reference data describing what a user's plan unlocks.
type MembershipTier struct {
	ID                  int64    `json:"id"`
	Name                TierName `json:"name"`
	Description         string   `json:"description"`
	MaxAddresses        int      `json:"max_addresses"`
	AllowsCustomization bool     `json:"allows_customization"`
	AllowsRestrictions  bool     `json:"allows_restrictions"`
	AllowsAdvancedStats bool     `json:"allows_advanced_stats"`
	MonthlyPrice        float64  `json:"monthly_price"`
}

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone"`
	RoleID       int64      `json:"role_id"`
	TierID       int64      `json:"tier_id"`
	Active       bool       `json:"active"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastAccess   *time.Time `json:"last_access"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Principal is an authenticated user together with the role and tier the
// authorization policy consults.
type Principal struct {
	User User
	Role Role
	Tier MembershipTier
}

func (p Principal) ID() int64 {
	return p.User.ID
}

func (p Principal) IsAdmin() bool {
	return p.Role.Name == RoleAdmin
}

// UserPatch carries the profile fields a user may change. Nil fields are left
// untouched.
type UserPatch struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

func (p UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

type IssuedToken struct {
	ID        int64      `json:"id"`
	JTI       string     `json:"jti"`
	UserID    int64      `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}
