package identity

import (
	"context"
	"time"
)

// Logger is the minimal logging surface the stores need
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// User is the account record the credential store operates on. Implementations
// own the concrete key type; the store only ever sees its string encoding.
//
// The normalized email field exists on the record but is never populated by
// the store, and the concurrency stamp is carried but never compared. Both are
// known gaps preserved from the original contract.
type User interface {
	GetID() string

	GetUserName() string
	SetUserName(name string)

	GetPasswordHash() string
	SetPasswordHash(hash string)

	GetEmail() string
	SetEmail(email string)
	GetNormalizedEmail() string
	SetNormalizedEmail(email string)
	IsEmailConfirmed() bool
	SetEmailConfirmed(confirmed bool)

	GetPhoneNumber() string
	SetPhoneNumber(phone string)
	IsPhoneNumberConfirmed() bool
	SetPhoneNumberConfirmed(confirmed bool)

	GetAccessFailedCount() int
	SetAccessFailedCount(count int)
	IsLockoutEnabled() bool
	SetLockoutEnabled(enabled bool)
	// GetLockoutEnd returns the time the lockout ends; nil or any time at or
	// before now means the user is not locked out. The store never applies
	// that policy itself.
	GetLockoutEnd() *time.Time
	SetLockoutEnd(end *time.Time)

	IsTwoFactorEnabled() bool
	SetTwoFactorEnabled(enabled bool)

	GetConcurrencyStamp() string
	SetConcurrencyStamp(stamp string)
	GetSecurityStamp() string
	SetSecurityStamp(stamp string)

	GetRoles() []UserRole
	SetRoles(roles []UserRole)
	GetLogins() []UserLogin
	SetLogins(logins []UserLogin)
	GetClaims() []UserClaim
	SetClaims(claims []UserClaim)
}

// UserRole is a role membership record owned by a user. Role names are unique
// per user, compared case-insensitively.
type UserRole interface {
	GetID() string
	GetUser() User
	SetUser(user User)
	GetRoleName() string
	SetRoleName(name string)
}

// UserLogin links a user to an external login provider. The
// (provider, provider key) pair is unique per user.
type UserLogin interface {
	GetID() string
	GetUser() User
	SetUser(user User)
	GetLoginProvider() string
	SetLoginProvider(provider string)
	GetProviderKey() string
	SetProviderKey(key string)
	GetProviderDisplayName() string
	SetProviderDisplayName(name string)
}

// UserClaim attaches a (type, value) claim to a user. The pair is unique per
// user.
type UserClaim interface {
	GetID() string
	GetUser() User
	SetUser(user User)
	GetClaimType() string
	SetClaimType(claimType string)
	GetClaimValue() string
	SetClaimValue(value string)
}

// Claim is the value form of a user claim as it crosses the store API.
type Claim struct {
	Type  string
	Value string
}

// LoginInfo is the value form of an external login as it crosses the store
// API.
type LoginInfo struct {
	Provider    string
	ProviderKey string
	DisplayName string
}

// Database is the persistence collaborator the stores drive. Implementations
// decide durability, transactions, and key encoding; the stores only require
// that a saved entity is visible to subsequent lookups.
//
// Lookups report absence with an error satisfying IsRecordNotFound; the
// stores translate absence into a nil result for their callers.
//
// Owned Role/Login/Claim rows are stored embedded with their user: SaveUser
// is expected to persist the user's collections, and DeleteUser is not
// required to verify dependent rows separately.
type Database interface {
	SaveUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, user User) error
	LoadUser(ctx context.Context, id string) (User, error)
	FindUserByName(ctx context.Context, userName string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)

	SaveRole(ctx context.Context, role UserRole) error
	DeleteRole(ctx context.Context, role UserRole) error
	LoadRole(ctx context.Context, id string) (UserRole, error)
	FindRoleByName(ctx context.Context, name string) (UserRole, error)

	SaveLogin(ctx context.Context, login UserLogin) error
	DeleteLogin(ctx context.Context, login UserLogin) error
	// FindLogin resolves a login row by (provider, provider key) across all
	// users, with the owning user reachable through GetUser.
	FindLogin(ctx context.Context, provider, providerKey string) (UserLogin, error)

	SaveClaim(ctx context.Context, claim UserClaim) error
	// UsersForClaim joins claims against users and returns the distinct set
	// of users holding the exact (type, value) pair.
	UsersForClaim(ctx context.Context, claimType, claimValue string) ([]User, error)
}

// checkContext reports the context error, if any, before we touch storage.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
