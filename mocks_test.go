package identity_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-identity"
)

// memUser implements identity.User for store tests.
type memUser struct {
	id                string
	userName          string
	passwordHash      string
	email             string
	normalizedEmail   string
	emailConfirmed    bool
	phoneNumber       string
	phoneConfirmed    bool
	accessFailedCount int
	lockoutEnabled    bool
	lockoutEnd        *time.Time
	twoFactorEnabled  bool
	concurrencyStamp  string
	securityStamp     string
	roles             []identity.UserRole
	logins            []identity.UserLogin
	claims            []identity.UserClaim
}

func newMemUser(id, userName, email string) *memUser {
	return &memUser{id: id, userName: userName, email: email}
}

func (u *memUser) GetID() string                { return u.id }
func (u *memUser) GetUserName() string          { return u.userName }
func (u *memUser) SetUserName(name string)      { u.userName = name }
func (u *memUser) GetPasswordHash() string      { return u.passwordHash }
func (u *memUser) SetPasswordHash(hash string)  { u.passwordHash = hash }
func (u *memUser) GetEmail() string             { return u.email }
func (u *memUser) SetEmail(email string)        { u.email = email }
func (u *memUser) GetNormalizedEmail() string   { return u.normalizedEmail }
func (u *memUser) SetNormalizedEmail(e string)  { u.normalizedEmail = e }
func (u *memUser) IsEmailConfirmed() bool       { return u.emailConfirmed }
func (u *memUser) SetEmailConfirmed(c bool)     { u.emailConfirmed = c }
func (u *memUser) GetPhoneNumber() string       { return u.phoneNumber }
func (u *memUser) SetPhoneNumber(phone string)  { u.phoneNumber = phone }
func (u *memUser) IsPhoneNumberConfirmed() bool { return u.phoneConfirmed }
func (u *memUser) SetPhoneNumberConfirmed(c bool) {
	u.phoneConfirmed = c
}
func (u *memUser) GetAccessFailedCount() int      { return u.accessFailedCount }
func (u *memUser) SetAccessFailedCount(count int) { u.accessFailedCount = count }
func (u *memUser) IsLockoutEnabled() bool         { return u.lockoutEnabled }
func (u *memUser) SetLockoutEnabled(e bool)       { u.lockoutEnabled = e }
func (u *memUser) GetLockoutEnd() *time.Time      { return u.lockoutEnd }
func (u *memUser) SetLockoutEnd(end *time.Time)   { u.lockoutEnd = end }
func (u *memUser) IsTwoFactorEnabled() bool       { return u.twoFactorEnabled }
func (u *memUser) SetTwoFactorEnabled(e bool)     { u.twoFactorEnabled = e }
func (u *memUser) GetConcurrencyStamp() string    { return u.concurrencyStamp }
func (u *memUser) SetConcurrencyStamp(s string)   { u.concurrencyStamp = s }
func (u *memUser) GetSecurityStamp() string       { return u.securityStamp }
func (u *memUser) SetSecurityStamp(s string)      { u.securityStamp = s }

func (u *memUser) GetRoles() []identity.UserRole       { return u.roles }
func (u *memUser) SetRoles(r []identity.UserRole)      { u.roles = r }
func (u *memUser) GetLogins() []identity.UserLogin     { return u.logins }
func (u *memUser) SetLogins(l []identity.UserLogin)    { u.logins = l }
func (u *memUser) GetClaims() []identity.UserClaim     { return u.claims }
func (u *memUser) SetClaims(c []identity.UserClaim)    { u.claims = c }

type memRole struct {
	id       string
	user     identity.User
	roleName string
}

func newMemRole() identity.UserRole { return &memRole{} }

func (r *memRole) GetID() string               { return r.id }
func (r *memRole) GetUser() identity.User      { return r.user }
func (r *memRole) SetUser(user identity.User)  { r.user = user }
func (r *memRole) GetRoleName() string         { return r.roleName }
func (r *memRole) SetRoleName(name string)     { r.roleName = name }

type memLogin struct {
	id          string
	user        identity.User
	provider    string
	providerKey string
	displayName string
}

func newMemLogin() identity.UserLogin { return &memLogin{} }

func (l *memLogin) GetID() string                  { return l.id }
func (l *memLogin) GetUser() identity.User         { return l.user }
func (l *memLogin) SetUser(user identity.User)     { l.user = user }
func (l *memLogin) GetLoginProvider() string       { return l.provider }
func (l *memLogin) SetLoginProvider(p string)      { l.provider = p }
func (l *memLogin) GetProviderKey() string         { return l.providerKey }
func (l *memLogin) SetProviderKey(key string)      { l.providerKey = key }
func (l *memLogin) GetProviderDisplayName() string { return l.displayName }
func (l *memLogin) SetProviderDisplayName(n string) {
	l.displayName = n
}

type memClaim struct {
	id         string
	user       identity.User
	claimType  string
	claimValue string
}

func newMemClaim() identity.UserClaim { return &memClaim{} }

func (c *memClaim) GetID() string              { return c.id }
func (c *memClaim) GetUser() identity.User     { return c.user }
func (c *memClaim) SetUser(user identity.User) { c.user = user }
func (c *memClaim) GetClaimType() string       { return c.claimType }
func (c *memClaim) SetClaimType(t string)      { c.claimType = t }
func (c *memClaim) GetClaimValue() string      { return c.claimValue }
func (c *memClaim) SetClaimValue(v string)     { c.claimValue = v }

// memDB is an in-memory identity.Database. It counts writes so tests can
// assert that failed validations never touch storage, and can be forced to
// fail to exercise the storage-failure paths.
type memDB struct {
	users  map[string]identity.User
	roles  map[string]identity.UserRole
	logins []identity.UserLogin
	claims []identity.UserClaim

	writes   int
	failWith error
	nextID   int
}

func newMemDB() *memDB {
	return &memDB{
		users: map[string]identity.User{},
		roles: map[string]identity.UserRole{},
	}
}

func (db *memDB) mintID() string {
	db.nextID++
	return fmt.Sprintf("id-%d", db.nextID)
}

func (db *memDB) SaveUser(ctx context.Context, user identity.User) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	record := user.(*memUser)
	if record.id == "" {
		record.id = db.mintID()
	}
	db.users[record.id] = record
	return nil
}

func (db *memDB) DeleteUser(ctx context.Context, user identity.User) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	delete(db.users, user.GetID())
	return nil
}

func (db *memDB) LoadUser(ctx context.Context, id string) (identity.User, error) {
	if user, ok := db.users[id]; ok {
		return user, nil
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) FindUserByName(ctx context.Context, userName string) (identity.User, error) {
	for _, user := range db.users {
		if user.GetUserName() == userName {
			return user, nil
		}
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) FindUserByEmail(ctx context.Context, email string) (identity.User, error) {
	for _, user := range db.users {
		if user.GetEmail() == email {
			return user, nil
		}
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) SaveRole(ctx context.Context, role identity.UserRole) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	record := role.(*memRole)
	if record.id == "" {
		record.id = db.mintID()
	}
	db.roles[record.id] = record
	return nil
}

func (db *memDB) DeleteRole(ctx context.Context, role identity.UserRole) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	delete(db.roles, role.GetID())
	return nil
}

func (db *memDB) LoadRole(ctx context.Context, id string) (identity.UserRole, error) {
	if role, ok := db.roles[id]; ok {
		return role, nil
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) FindRoleByName(ctx context.Context, name string) (identity.UserRole, error) {
	for _, role := range db.roles {
		if role.GetRoleName() == name {
			return role, nil
		}
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) SaveLogin(ctx context.Context, login identity.UserLogin) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	record := login.(*memLogin)
	if record.id == "" {
		record.id = db.mintID()
	}
	for i, existing := range db.logins {
		if existing.GetID() == record.id {
			db.logins[i] = record
			return nil
		}
	}
	db.logins = append(db.logins, record)
	return nil
}

func (db *memDB) DeleteLogin(ctx context.Context, login identity.UserLogin) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	kept := db.logins[:0]
	for _, existing := range db.logins {
		if existing.GetID() != login.GetID() {
			kept = append(kept, existing)
		}
	}
	db.logins = kept
	return nil
}

func (db *memDB) FindLogin(ctx context.Context, provider, providerKey string) (identity.UserLogin, error) {
	for _, login := range db.logins {
		if login.GetLoginProvider() == provider && login.GetProviderKey() == providerKey {
			return login, nil
		}
	}
	return nil, identity.ErrRecordNotFound
}

func (db *memDB) SaveClaim(ctx context.Context, claim identity.UserClaim) error {
	if db.failWith != nil {
		return db.failWith
	}
	db.writes++
	record := claim.(*memClaim)
	if record.id == "" {
		record.id = db.mintID()
	}
	for i, existing := range db.claims {
		if existing.GetID() == record.id {
			db.claims[i] = record
			return nil
		}
	}
	db.claims = append(db.claims, record)
	return nil
}

func (db *memDB) UsersForClaim(ctx context.Context, claimType, claimValue string) ([]identity.User, error) {
	seen := map[identity.User]bool{}
	users := []identity.User{}
	for _, claim := range db.claims {
		if claim.GetClaimType() != claimType || claim.GetClaimValue() != claimValue {
			continue
		}
		owner := claim.GetUser()
		if owner == nil || seen[owner] {
			continue
		}
		seen[owner] = true
		users = append(users, owner)
	}
	return users, nil
}

// loginPairs flattens login infos for compact assertions.
func loginPairs(infos []identity.LoginInfo) []string {
	pairs := make([]string, 0, len(infos))
	for _, info := range infos {
		pairs = append(pairs, strings.Join([]string{info.Provider, info.ProviderKey}, "/"))
	}
	return pairs
}
