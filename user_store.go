package identity

import (
	"context"
	"strings"
	"time"
)

// UserStore maps the account model onto a Database collaborator. It is a
// thin, stateless-per-call layer: it never retries, never locks, and holds no
// cache — two concurrent mutations of the same in-memory user are resolved by
// the collaborator's own write semantics.
//
// Roles, logins, and claims are independently optional; see Capability.
type UserStore struct {
	db     Database
	roles  Capability[UserRole]
	logins Capability[UserLogin]
	claims Capability[UserClaim]
	logger Logger
}

// UserStoreOption configures a UserStore at construction.
type UserStoreOption func(*UserStore)

// WithRoles enables role membership, minting records with newRecord.
func WithRoles(newRecord func() UserRole) UserStoreOption {
	return func(s *UserStore) {
		s.roles = NewCapability(newRecord)
	}
}

// WithLogins enables external logins, minting records with newRecord.
func WithLogins(newRecord func() UserLogin) UserStoreOption {
	return func(s *UserStore) {
		s.logins = NewCapability(newRecord)
	}
}

// WithClaims enables claims, minting records with newRecord.
func WithClaims(newRecord func() UserClaim) UserStoreOption {
	return func(s *UserStore) {
		s.claims = NewCapability(newRecord)
	}
}

// WithUserStoreLogger sets the store logger.
func WithUserStoreLogger(logger Logger) UserStoreOption {
	return func(s *UserStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewUserStore builds a UserStore over db. All three capabilities default to
// disabled.
func NewUserStore(db Database, opts ...UserStoreOption) *UserStore {
	store := &UserStore{
		db:     db,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// RolesEnabled reports whether the store was built with role membership.
func (s *UserStore) RolesEnabled() bool { return s.roles.IsEnabled() }

// LoginsEnabled reports whether the store was built with external logins.
func (s *UserStore) LoginsEnabled() bool { return s.logins.IsEnabled() }

// ClaimsEnabled reports whether the store was built with claims.
func (s *UserStore) ClaimsEnabled() bool { return s.claims.IsEnabled() }

// Create persists a new user record.
func (s *UserStore) Create(ctx context.Context, user User) Result {
	return s.save(ctx, user, "create user")
}

// Update persists the full user record, including its owned collections.
func (s *UserStore) Update(ctx context.Context, user User) Result {
	return s.save(ctx, user, "update user")
}

func (s *UserStore) save(ctx context.Context, user User, operation string) Result {
	if user == nil {
		return invalidArgumentResult("user")
	}
	if err := checkContext(ctx); err != nil {
		return storageFailureResult(err)
	}
	if err := s.db.SaveUser(ctx, user); err != nil {
		s.logger.Error("identity: %s failed: %v", operation, err)
		return storageFailureResult(err)
	}
	return Success()
}

// Delete removes the persisted user record. Owned roles, logins, and claims
// are stored embedded with the user, so no dependent rows are verified here.
func (s *UserStore) Delete(ctx context.Context, user User) Result {
	if user == nil {
		return invalidArgumentResult("user")
	}
	if err := checkContext(ctx); err != nil {
		return storageFailureResult(err)
	}
	if err := s.db.DeleteUser(ctx, user); err != nil {
		s.logger.Error("identity: delete user failed: %v", err)
		return storageFailureResult(err)
	}
	return Success()
}

// FindByID returns the user with the given id, or nil when no user matches.
func (s *UserStore) FindByID(ctx context.Context, id string) (User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	user, err := s.db.LoadUser(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find user by id")
	}
	return user, nil
}

// FindByName returns the user whose stored user name equals normalizedName,
// or nil when no user matches. The comparison is against the raw user name
// field; no separate normalized name is persisted.
func (s *UserStore) FindByName(ctx context.Context, normalizedName string) (User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	user, err := s.db.FindUserByName(ctx, normalizedName)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find user by name")
	}
	return user, nil
}

// GetUserID returns the user's identifier.
func (s *UserStore) GetUserID(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetID(), nil
}

// GetUserName returns the user's name.
func (s *UserStore) GetUserName(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetUserName(), nil
}

// GetNormalizedUserName upper-cases the stored user name; no independent
// normalized name field exists on the user record.
func (s *UserStore) GetNormalizedUserName(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return strings.ToUpper(user.GetUserName()), nil
}

// SetUserName updates the in-memory user name. The change is persisted on the
// next Create or Update.
func (s *UserStore) SetUserName(ctx context.Context, user User, name string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetUserName(name)
	return nil
}

// SetNormalizedUserName is a no-op: the record has no normalized user name
// field to write. Kept as a successful no-op from the original contract.
func (s *UserStore) SetNormalizedUserName(ctx context.Context, user User, name string) error {
	return nil
}

// AddToRole adds the user to the named role. Adding a role the user already
// holds (compared case-insensitively) is a no-op. The membership row is
// persisted with the user on the next Update.
func (s *UserStore) AddToRole(ctx context.Context, user User, roleName string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	if userHasRole(user, roleName) {
		return nil
	}

	role, err := s.roles.NewRecord()
	if err != nil {
		return err
	}
	role.SetUser(user)
	role.SetRoleName(roleName)
	user.SetRoles(append(user.GetRoles(), role))
	return nil
}

// GetRoles lists the user's role names. When roles are disabled it returns an
// empty list rather than an error.
func (s *UserStore) GetRoles(ctx context.Context, user User) ([]string, error) {
	if user == nil {
		return nil, invalidArgumentError("user")
	}
	if !s.roles.IsEnabled() {
		return []string{}, nil
	}
	roles := user.GetRoles()
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.GetRoleName())
	}
	return names, nil
}

// GetUsersInRole is not implemented.
func (s *UserStore) GetUsersInRole(ctx context.Context, roleName string) ([]User, error) {
	return nil, notImplementedError("GetUsersInRole")
}

// IsInRole reports whether the user holds the named role, compared
// case-insensitively.
func (s *UserStore) IsInRole(ctx context.Context, user User, roleName string) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return userHasRole(user, roleName), nil
}

// RemoveFromRole removes every membership matching roleName from the user's
// in-memory collection; there should be at most one, but duplicates are
// tolerated. The removal is persisted with the user on the next Update.
func (s *UserStore) RemoveFromRole(ctx context.Context, user User, roleName string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	roles := user.GetRoles()
	kept := make([]UserRole, 0, len(roles))
	for _, role := range roles {
		if !strings.EqualFold(role.GetRoleName(), roleName) {
			kept = append(kept, role)
		}
	}
	user.SetRoles(kept)
	return nil
}

// AddLogin links an external login to the user. Adding a
// (provider, provider key) pair the user already has is a no-op; on first
// add the login row is persisted immediately. The display name is not
// persisted; GetLogins echoes the provider instead.
func (s *UserStore) AddLogin(ctx context.Context, user User, login LoginInfo) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	for _, existing := range user.GetLogins() {
		if existing.GetLoginProvider() == login.Provider &&
			existing.GetProviderKey() == login.ProviderKey {
			return nil
		}
	}

	record, err := s.logins.NewRecord()
	if err != nil {
		return err
	}
	record.SetUser(user)
	record.SetLoginProvider(login.Provider)
	record.SetProviderKey(login.ProviderKey)
	if err := s.db.SaveLogin(ctx, record); err != nil {
		s.logger.Error("identity: add login failed: %v", err)
		return storageError(err, "add login")
	}
	user.SetLogins(append(user.GetLogins(), record))
	return nil
}

// FindByLogin resolves the user owning the (provider, providerKey) login, or
// nil when no login matches. The lookup is not capability gated; it is never
// invoked on deployments without logins.
func (s *UserStore) FindByLogin(ctx context.Context, provider, providerKey string) (User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	login, err := s.db.FindLogin(ctx, provider, providerKey)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find user by login")
	}
	if login == nil {
		return nil, nil
	}
	return login.GetUser(), nil
}

// GetLogins lists the user's external logins. When logins are disabled it
// returns an empty list rather than an error.
func (s *UserStore) GetLogins(ctx context.Context, user User) ([]LoginInfo, error) {
	if user == nil {
		return nil, invalidArgumentError("user")
	}
	if !s.logins.IsEnabled() {
		return []LoginInfo{}, nil
	}
	logins := user.GetLogins()
	infos := make([]LoginInfo, 0, len(logins))
	for _, login := range logins {
		infos = append(infos, LoginInfo{
			Provider:    login.GetLoginProvider(),
			ProviderKey: login.GetProviderKey(),
			DisplayName: login.GetLoginProvider(),
		})
	}
	return infos, nil
}

// RemoveLogin deletes every login row matching (provider, providerKey) from
// storage and from the user's in-memory collection.
func (s *UserStore) RemoveLogin(ctx context.Context, user User, provider, providerKey string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	logins := user.GetLogins()
	kept := make([]UserLogin, 0, len(logins))
	for _, login := range logins {
		if login.GetLoginProvider() == provider && login.GetProviderKey() == providerKey {
			if err := s.db.DeleteLogin(ctx, login); err != nil {
				s.logger.Error("identity: remove login failed: %v", err)
				return storageError(err, "remove login")
			}
			continue
		}
		kept = append(kept, login)
	}
	user.SetLogins(kept)
	return nil
}

// AddClaims attaches each claim to the user. A (type, value) pair the user
// already holds is skipped; new claim rows are persisted immediately.
func (s *UserStore) AddClaims(ctx context.Context, user User, claims []Claim) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	for _, claim := range claims {
		if userHasClaim(user, claim) {
			continue
		}

		record, err := s.claims.NewRecord()
		if err != nil {
			return err
		}
		record.SetUser(user)
		record.SetClaimType(claim.Type)
		record.SetClaimValue(claim.Value)
		if err := s.db.SaveClaim(ctx, record); err != nil {
			s.logger.Error("identity: add claim failed: %v", err)
			return storageError(err, "add claim")
		}
		user.SetClaims(append(user.GetClaims(), record))
	}
	return nil
}

// GetClaims lists the user's claims. When claims are disabled it returns an
// empty list rather than an error.
func (s *UserStore) GetClaims(ctx context.Context, user User) ([]Claim, error) {
	if user == nil {
		return nil, invalidArgumentError("user")
	}
	if !s.claims.IsEnabled() {
		return []Claim{}, nil
	}
	records := user.GetClaims()
	claims := make([]Claim, 0, len(records))
	for _, record := range records {
		claims = append(claims, Claim{Type: record.GetClaimType(), Value: record.GetClaimValue()})
	}
	return claims, nil
}

// GetUsersForClaim returns the distinct users holding the exact (type, value)
// pair.
func (s *UserStore) GetUsersForClaim(ctx context.Context, claim Claim) ([]User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	users, err := s.db.UsersForClaim(ctx, claim.Type, claim.Value)
	if err != nil {
		return nil, storageError(err, "get users for claim")
	}
	return users, nil
}

// RemoveClaims removes every in-memory claim matching any of the given
// (type, value) pairs. The removal is persisted with the user on the next
// Update.
func (s *UserStore) RemoveClaims(ctx context.Context, user User, claims []Claim) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	records := user.GetClaims()
	kept := make([]UserClaim, 0, len(records))
	for _, record := range records {
		matched := false
		for _, claim := range claims {
			if record.GetClaimType() == claim.Type && record.GetClaimValue() == claim.Value {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, record)
		}
	}
	user.SetClaims(kept)
	return nil
}

// ReplaceClaim is not implemented. Implementing it as an atomic
// remove-then-add would be a documented deviation from this contract.
func (s *UserStore) ReplaceClaim(ctx context.Context, user User, old, updated Claim) error {
	return notImplementedError("ReplaceClaim")
}

// GetPasswordHash returns the stored password hash, empty when the user has
// no password.
func (s *UserStore) GetPasswordHash(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetPasswordHash(), nil
}

// HasPassword reports whether the user has a password hash set.
func (s *UserStore) HasPassword(ctx context.Context, user User) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return user.GetPasswordHash() != "", nil
}

// SetPasswordHash updates the in-memory password hash.
func (s *UserStore) SetPasswordHash(ctx context.Context, user User, hash string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetPasswordHash(hash)
	return nil
}

// GetSecurityStamp returns the user's security stamp.
func (s *UserStore) GetSecurityStamp(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetSecurityStamp(), nil
}

// SetSecurityStamp updates the user's security stamp. The stamp is an opaque
// token; minting it belongs to the caller.
func (s *UserStore) SetSecurityStamp(ctx context.Context, user User, stamp string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetSecurityStamp(stamp)
	return nil
}

// FindByEmail returns the user whose stored email equals email exactly, or
// nil when no user matches. The lookup compares the raw email field, not the
// normalized one.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	user, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find user by email")
	}
	return user, nil
}

// GetEmail returns the user's email address.
func (s *UserStore) GetEmail(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetEmail(), nil
}

// SetEmail updates the in-memory email address.
func (s *UserStore) SetEmail(ctx context.Context, user User, email string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetEmail(email)
	return nil
}

// GetEmailConfirmed reports whether the user's email has been confirmed.
func (s *UserStore) GetEmailConfirmed(ctx context.Context, user User) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return user.IsEmailConfirmed(), nil
}

// SetEmailConfirmed updates the in-memory email confirmation flag.
func (s *UserStore) SetEmailConfirmed(ctx context.Context, user User, confirmed bool) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetEmailConfirmed(confirmed)
	return nil
}

// GetNormalizedEmail is not implemented; the normalized email field is never
// populated by this store.
func (s *UserStore) GetNormalizedEmail(ctx context.Context, user User) (string, error) {
	return "", notImplementedError("GetNormalizedEmail")
}

// SetNormalizedEmail reports success without persisting anything; the
// normalized email field is never populated by this store. Callers relying on
// normalized email lookups will not find a match through FindByEmail.
func (s *UserStore) SetNormalizedEmail(ctx context.Context, user User, email string) error {
	return nil
}

// GetAccessFailedCount returns the user's failed access count.
func (s *UserStore) GetAccessFailedCount(ctx context.Context, user User) (int, error) {
	if user == nil {
		return 0, invalidArgumentError("user")
	}
	return user.GetAccessFailedCount(), nil
}

// IncrementAccessFailedCount records a failed access and returns the new
// count.
func (s *UserStore) IncrementAccessFailedCount(ctx context.Context, user User) (int, error) {
	if user == nil {
		return 0, invalidArgumentError("user")
	}
	user.SetAccessFailedCount(user.GetAccessFailedCount() + 1)
	return user.GetAccessFailedCount(), nil
}

// ResetAccessFailedCount resets the user's failed access count to zero.
func (s *UserStore) ResetAccessFailedCount(ctx context.Context, user User) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetAccessFailedCount(0)
	return nil
}

// GetLockoutEnabled reports whether the user can be locked out.
func (s *UserStore) GetLockoutEnabled(ctx context.Context, user User) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return user.IsLockoutEnabled(), nil
}

// SetLockoutEnabled updates whether the user can be locked out.
func (s *UserStore) SetLockoutEnabled(ctx context.Context, user User, enabled bool) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetLockoutEnabled(enabled)
	return nil
}

// GetLockoutEndDate returns when the user's lockout ends. Lockout state is
// purely data here; deciding whether the user is currently locked out belongs
// to the caller.
func (s *UserStore) GetLockoutEndDate(ctx context.Context, user User) (*time.Time, error) {
	if user == nil {
		return nil, invalidArgumentError("user")
	}
	return user.GetLockoutEnd(), nil
}

// SetLockoutEndDate locks the user out until end passes. A time in the past,
// or nil, means the user is not locked out.
func (s *UserStore) SetLockoutEndDate(ctx context.Context, user User, end *time.Time) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetLockoutEnd(end)
	return nil
}

// GetTwoFactorEnabled reports whether two-factor authentication is enabled
// for the user.
func (s *UserStore) GetTwoFactorEnabled(ctx context.Context, user User) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return user.IsTwoFactorEnabled(), nil
}

// SetTwoFactorEnabled updates the user's two-factor flag.
func (s *UserStore) SetTwoFactorEnabled(ctx context.Context, user User, enabled bool) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetTwoFactorEnabled(enabled)
	return nil
}

// GetPhoneNumber returns the user's phone number.
func (s *UserStore) GetPhoneNumber(ctx context.Context, user User) (string, error) {
	if user == nil {
		return "", invalidArgumentError("user")
	}
	return user.GetPhoneNumber(), nil
}

// SetPhoneNumber updates the in-memory phone number.
func (s *UserStore) SetPhoneNumber(ctx context.Context, user User, phone string) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetPhoneNumber(phone)
	return nil
}

// GetPhoneNumberConfirmed reports whether the user's phone number has been
// confirmed.
func (s *UserStore) GetPhoneNumberConfirmed(ctx context.Context, user User) (bool, error) {
	if user == nil {
		return false, invalidArgumentError("user")
	}
	return user.IsPhoneNumberConfirmed(), nil
}

// SetPhoneNumberConfirmed updates the in-memory phone confirmation flag.
func (s *UserStore) SetPhoneNumberConfirmed(ctx context.Context, user User, confirmed bool) error {
	if user == nil {
		return invalidArgumentError("user")
	}
	user.SetPhoneNumberConfirmed(confirmed)
	return nil
}

func userHasRole(user User, roleName string) bool {
	for _, role := range user.GetRoles() {
		if strings.EqualFold(role.GetRoleName(), roleName) {
			return true
		}
	}
	return false
}

func userHasClaim(user User, claim Claim) bool {
	for _, record := range user.GetClaims() {
		if record.GetClaimType() == claim.Type && record.GetClaimValue() == claim.Value {
			return true
		}
	}
	return false
}
