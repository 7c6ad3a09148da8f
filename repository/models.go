package repository

import (
	"time"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the Bun model for account records.
type User struct {
	bun.BaseModel `bun:"table:identity_users,alias:iu"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserName          string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"password_hash,omitempty"`
	Email             string     `bun:"email" json:"email,omitempty"`
	NormalizedEmail   string     `bun:"normalized_email" json:"normalized_email,omitempty"`
	EmailConfirmed    bool       `bun:"is_email_confirmed" json:"is_email_confirmed,omitempty"`
	PhoneNumber       string     `bun:"phone_number" json:"phone_number,omitempty"`
	PhoneConfirmed    bool       `bun:"is_phone_confirmed" json:"is_phone_confirmed,omitempty"`
	AccessFailedCount int        `bun:"access_failed_count" json:"access_failed_count,omitempty"`
	LockoutEnabled    bool       `bun:"is_lockout_enabled" json:"is_lockout_enabled,omitempty"`
	LockoutEnd        *time.Time `bun:"lockout_end,nullzero" json:"lockout_end,omitempty"`
	TwoFactorEnabled  bool       `bun:"is_two_factor_enabled" json:"is_two_factor_enabled,omitempty"`
	ConcurrencyStamp  string     `bun:"concurrency_stamp" json:"concurrency_stamp,omitempty"`
	SecurityStamp     string     `bun:"security_stamp" json:"security_stamp,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`

	Roles  []*UserRole  `bun:"rel:has-many,join:id=user_id" json:"roles,omitempty"`
	Logins []*UserLogin `bun:"rel:has-many,join:id=user_id" json:"logins,omitempty"`
	Claims []*UserClaim `bun:"rel:has-many,join:id=user_id" json:"claims,omitempty"`
}

var _ identity.User = (*User)(nil)

// GetID returns the string form of the primary key, empty while the record is
// unsaved.
func (u *User) GetID() string {
	if u.ID == uuid.Nil {
		return ""
	}
	return u.ID.String()
}

func (u *User) GetUserName() string     { return u.UserName }
func (u *User) SetUserName(name string) { u.UserName = name }

func (u *User) GetPasswordHash() string     { return u.PasswordHash }
func (u *User) SetPasswordHash(hash string) { u.PasswordHash = hash }

func (u *User) GetEmail() string                { return u.Email }
func (u *User) SetEmail(email string)           { u.Email = email }
func (u *User) GetNormalizedEmail() string      { return u.NormalizedEmail }
func (u *User) SetNormalizedEmail(email string) { u.NormalizedEmail = email }
func (u *User) IsEmailConfirmed() bool          { return u.EmailConfirmed }
func (u *User) SetEmailConfirmed(confirmed bool) {
	u.EmailConfirmed = confirmed
}

func (u *User) GetPhoneNumber() string      { return u.PhoneNumber }
func (u *User) SetPhoneNumber(phone string) { u.PhoneNumber = phone }
func (u *User) IsPhoneNumberConfirmed() bool {
	return u.PhoneConfirmed
}
func (u *User) SetPhoneNumberConfirmed(confirmed bool) {
	u.PhoneConfirmed = confirmed
}

func (u *User) GetAccessFailedCount() int       { return u.AccessFailedCount }
func (u *User) SetAccessFailedCount(count int)  { u.AccessFailedCount = count }
func (u *User) IsLockoutEnabled() bool          { return u.LockoutEnabled }
func (u *User) SetLockoutEnabled(enabled bool)  { u.LockoutEnabled = enabled }
func (u *User) GetLockoutEnd() *time.Time       { return u.LockoutEnd }
func (u *User) SetLockoutEnd(end *time.Time)    { u.LockoutEnd = end }
func (u *User) IsTwoFactorEnabled() bool        { return u.TwoFactorEnabled }
func (u *User) SetTwoFactorEnabled(enabled bool) {
	u.TwoFactorEnabled = enabled
}

func (u *User) GetConcurrencyStamp() string      { return u.ConcurrencyStamp }
func (u *User) SetConcurrencyStamp(stamp string) { u.ConcurrencyStamp = stamp }
func (u *User) GetSecurityStamp() string         { return u.SecurityStamp }
func (u *User) SetSecurityStamp(stamp string)    { u.SecurityStamp = stamp }

func (u *User) GetRoles() []identity.UserRole {
	roles := make([]identity.UserRole, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, role)
	}
	return roles
}

func (u *User) SetRoles(roles []identity.UserRole) {
	records := make([]*UserRole, 0, len(roles))
	for _, role := range roles {
		if record, ok := role.(*UserRole); ok && record != nil {
			records = append(records, record)
		}
	}
	u.Roles = records
}

func (u *User) GetLogins() []identity.UserLogin {
	logins := make([]identity.UserLogin, 0, len(u.Logins))
	for _, login := range u.Logins {
		logins = append(logins, login)
	}
	return logins
}

func (u *User) SetLogins(logins []identity.UserLogin) {
	records := make([]*UserLogin, 0, len(logins))
	for _, login := range logins {
		if record, ok := login.(*UserLogin); ok && record != nil {
			records = append(records, record)
		}
	}
	u.Logins = records
}

func (u *User) GetClaims() []identity.UserClaim {
	claims := make([]identity.UserClaim, 0, len(u.Claims))
	for _, claim := range u.Claims {
		claims = append(claims, claim)
	}
	return claims
}

func (u *User) SetClaims(claims []identity.UserClaim) {
	records := make([]*UserClaim, 0, len(claims))
	for _, claim := range claims {
		if record, ok := claim.(*UserClaim); ok && record != nil {
			records = append(records, record)
		}
	}
	u.Claims = records
}

// UserRole is the Bun model for role membership rows.
type UserRole struct {
	bun.BaseModel `bun:"table:identity_user_roles,alias:iur"`

	ID       uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID   uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	RoleName string    `bun:"role_name,notnull" json:"role_name,omitempty"`

	Owner *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

var _ identity.UserRole = (*UserRole)(nil)

func (r *UserRole) GetID() string {
	if r.ID == uuid.Nil {
		return ""
	}
	return r.ID.String()
}

func (r *UserRole) GetUser() identity.User {
	if r.Owner == nil {
		return nil
	}
	return r.Owner
}

func (r *UserRole) SetUser(user identity.User) {
	owner, _ := user.(*User)
	r.Owner = owner
	if owner != nil {
		r.UserID = owner.ID
	}
}

func (r *UserRole) GetRoleName() string     { return r.RoleName }
func (r *UserRole) SetRoleName(name string) { r.RoleName = name }

// UserLogin is the Bun model for external login rows.
type UserLogin struct {
	bun.BaseModel `bun:"table:identity_user_logins,alias:iul"`

	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	LoginProvider string    `bun:"login_provider,notnull" json:"login_provider,omitempty"`
	ProviderKey   string    `bun:"provider_key,notnull" json:"provider_key,omitempty"`
	DisplayName   string    `bun:"provider_display_name" json:"provider_display_name,omitempty"`

	Owner *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

var _ identity.UserLogin = (*UserLogin)(nil)

func (l *UserLogin) GetID() string {
	if l.ID == uuid.Nil {
		return ""
	}
	return l.ID.String()
}

func (l *UserLogin) GetUser() identity.User {
	if l.Owner == nil {
		return nil
	}
	return l.Owner
}

func (l *UserLogin) SetUser(user identity.User) {
	owner, _ := user.(*User)
	l.Owner = owner
	if owner != nil {
		l.UserID = owner.ID
	}
}

func (l *UserLogin) GetLoginProvider() string         { return l.LoginProvider }
func (l *UserLogin) SetLoginProvider(provider string) { l.LoginProvider = provider }
func (l *UserLogin) GetProviderKey() string           { return l.ProviderKey }
func (l *UserLogin) SetProviderKey(key string)        { l.ProviderKey = key }
func (l *UserLogin) GetProviderDisplayName() string   { return l.DisplayName }
func (l *UserLogin) SetProviderDisplayName(name string) {
	l.DisplayName = name
}

// UserClaim is the Bun model for claim rows.
type UserClaim struct {
	bun.BaseModel `bun:"table:identity_user_claims,alias:iuc"`

	ID         uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID     uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	ClaimType  string    `bun:"claim_type,notnull" json:"claim_type,omitempty"`
	ClaimValue string    `bun:"claim_value,notnull" json:"claim_value,omitempty"`

	Owner *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

var _ identity.UserClaim = (*UserClaim)(nil)

func (c *UserClaim) GetID() string {
	if c.ID == uuid.Nil {
		return ""
	}
	return c.ID.String()
}

func (c *UserClaim) GetUser() identity.User {
	if c.Owner == nil {
		return nil
	}
	return c.Owner
}

func (c *UserClaim) SetUser(user identity.User) {
	owner, _ := user.(*User)
	c.Owner = owner
	if owner != nil {
		c.UserID = owner.ID
	}
}

func (c *UserClaim) GetClaimType() string           { return c.ClaimType }
func (c *UserClaim) SetClaimType(claimType string)  { c.ClaimType = claimType }
func (c *UserClaim) GetClaimValue() string          { return c.ClaimValue }
func (c *UserClaim) SetClaimValue(value string)     { c.ClaimValue = value }

// NewRoleRecord mints an unsaved role row; pass to identity.WithRoles.
func NewRoleRecord() identity.UserRole { return &UserRole{} }

// NewLoginRecord mints an unsaved login row; pass to identity.WithLogins.
func NewLoginRecord() identity.UserLogin { return &UserLogin{} }

// NewClaimRecord mints an unsaved claim row; pass to identity.WithClaims.
func NewClaimRecord() identity.UserClaim { return &UserClaim{} }
