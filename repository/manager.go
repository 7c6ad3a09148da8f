package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-identity"
	repobun "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Manager implements identity.Database over a Bun connection. Owned
// role/login/claim rows are reconciled with the user row inside one
// transaction on SaveUser, which is what lets the stores treat them as
// embedded with the user.
type Manager struct {
	db    *bun.DB
	users repobun.Repository[*User]
	roles repobun.Repository[*UserRole]
}

var _ identity.Database = (*Manager)(nil)

// NewManager builds a Manager over db.
func NewManager(db *bun.DB) *Manager {
	users := repobun.NewRepository(db, repobun.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(record *User) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *User, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	roles := repobun.NewRepository(db, repobun.ModelHandlers[*UserRole]{
		NewRecord: func() *UserRole { return &UserRole{} },
		GetID: func(record *UserRole) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *UserRole, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "role_name"
		},
	})

	return &Manager{
		db:    db,
		users: users,
		roles: roles,
	}
}

// Validate checks the manager was wired with its repositories.
func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a bun.DB")
	}
	if m.users == nil || m.roles == nil {
		return errors.New("repository manager repositories should be initialized")
	}
	return nil
}

// RunInTx runs f inside a transaction.
func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// userRelations loads the owned collections alongside the user row.
var userRelations repobun.SelectCriteria = func(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Roles").
		Relation("Logins").
		Relation("Claims")
}

// SaveUser upserts the user row and reconciles its owned role, login, and
// claim rows in one transaction: rows dropped from the in-memory collections
// are deleted, the rest are upserted.
func (m *Manager) SaveUser(ctx context.Context, user identity.User) error {
	record, ok := user.(*User)
	if !ok || record == nil {
		return errors.New("repository: user is not a repository.User record")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.UpdatedAt = &now

	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(record).
			On("CONFLICT (id) DO UPDATE").
			Set("username = EXCLUDED.username").
			Set("password_hash = EXCLUDED.password_hash").
			Set("email = EXCLUDED.email").
			Set("normalized_email = EXCLUDED.normalized_email").
			Set("is_email_confirmed = EXCLUDED.is_email_confirmed").
			Set("phone_number = EXCLUDED.phone_number").
			Set("is_phone_confirmed = EXCLUDED.is_phone_confirmed").
			Set("access_failed_count = EXCLUDED.access_failed_count").
			Set("is_lockout_enabled = EXCLUDED.is_lockout_enabled").
			Set("lockout_end = EXCLUDED.lockout_end").
			Set("is_two_factor_enabled = EXCLUDED.is_two_factor_enabled").
			Set("concurrency_stamp = EXCLUDED.concurrency_stamp").
			Set("security_stamp = EXCLUDED.security_stamp").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return err
		}

		if err := m.reconcileRoles(ctx, tx, record); err != nil {
			return err
		}
		if err := m.reconcileLogins(ctx, tx, record); err != nil {
			return err
		}
		return m.reconcileClaims(ctx, tx, record)
	})
}

func (m *Manager) reconcileRoles(ctx context.Context, tx bun.Tx, user *User) error {
	kept := make([]uuid.UUID, 0, len(user.Roles))
	for _, role := range user.Roles {
		if role.ID == uuid.Nil {
			role.ID = uuid.New()
		}
		role.UserID = user.ID
		kept = append(kept, role.ID)
	}

	if err := deleteOrphans(ctx, tx, (*UserRole)(nil), user.ID, kept); err != nil {
		return err
	}

	for _, role := range user.Roles {
		_, err := tx.NewInsert().
			Model(role).
			On("CONFLICT (id) DO UPDATE").
			Set("user_id = EXCLUDED.user_id").
			Set("role_name = EXCLUDED.role_name").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) reconcileLogins(ctx context.Context, tx bun.Tx, user *User) error {
	kept := make([]uuid.UUID, 0, len(user.Logins))
	for _, login := range user.Logins {
		if login.ID == uuid.Nil {
			login.ID = uuid.New()
		}
		login.UserID = user.ID
		kept = append(kept, login.ID)
	}

	if err := deleteOrphans(ctx, tx, (*UserLogin)(nil), user.ID, kept); err != nil {
		return err
	}

	for _, login := range user.Logins {
		_, err := tx.NewInsert().
			Model(login).
			On("CONFLICT (id) DO UPDATE").
			Set("user_id = EXCLUDED.user_id").
			Set("login_provider = EXCLUDED.login_provider").
			Set("provider_key = EXCLUDED.provider_key").
			Set("provider_display_name = EXCLUDED.provider_display_name").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) reconcileClaims(ctx context.Context, tx bun.Tx, user *User) error {
	kept := make([]uuid.UUID, 0, len(user.Claims))
	for _, claim := range user.Claims {
		if claim.ID == uuid.Nil {
			claim.ID = uuid.New()
		}
		claim.UserID = user.ID
		kept = append(kept, claim.ID)
	}

	if err := deleteOrphans(ctx, tx, (*UserClaim)(nil), user.ID, kept); err != nil {
		return err
	}

	for _, claim := range user.Claims {
		_, err := tx.NewInsert().
			Model(claim).
			On("CONFLICT (id) DO UPDATE").
			Set("user_id = EXCLUDED.user_id").
			Set("claim_type = EXCLUDED.claim_type").
			Set("claim_value = EXCLUDED.claim_value").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteOrphans(ctx context.Context, tx bun.Tx, model any, userID uuid.UUID, kept []uuid.UUID) error {
	q := tx.NewDelete().
		Model(model).
		Where("user_id = ?", userID)
	if len(kept) > 0 {
		q = q.Where("id NOT IN (?)", bun.In(kept))
	}
	_, err := q.Exec(ctx)
	return err
}

// DeleteUser removes the user row and its owned rows.
func (m *Manager) DeleteUser(ctx context.Context, user identity.User) error {
	record, ok := user.(*User)
	if !ok || record == nil {
		return errors.New("repository: user is not a repository.User record")
	}

	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*UserRole)(nil), (*UserLogin)(nil), (*UserClaim)(nil)} {
			_, err := tx.NewDelete().
				Model(model).
				Where("user_id = ?", record.ID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		_, err := tx.NewDelete().
			Model(record).
			Where("id = ?", record.ID).
			Exec(ctx)
		return err
	})
}

// LoadUser resolves a user by its string key with collections attached. An
// unparseable key is reported as not found, not as a fault.
func (m *Manager) LoadUser(ctx context.Context, id string) (identity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}

	record, err := m.users.GetByID(ctx, uid.String(), userRelations)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindUserByName resolves a user by exact user name match.
func (m *Manager) FindUserByName(ctx context.Context, userName string) (identity.User, error) {
	return m.findUser(ctx, "username = ?", userName)
}

// FindUserByEmail resolves a user by exact match on the raw email column.
func (m *Manager) FindUserByEmail(ctx context.Context, email string) (identity.User, error) {
	return m.findUser(ctx, "email = ?", email)
}

func (m *Manager) findUser(ctx context.Context, where string, arg any) (identity.User, error) {
	record := &User{}
	err := m.db.NewSelect().
		Model(record).
		Relation("Roles").
		Relation("Logins").
		Relation("Claims").
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
				"criteria": where,
			})
		}
		return nil, err
	}
	return record, nil
}

// SaveRole upserts a role row.
func (m *Manager) SaveRole(ctx context.Context, role identity.UserRole) error {
	record, ok := role.(*UserRole)
	if !ok || record == nil {
		return errors.New("repository: role is not a repository.UserRole record")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Owner != nil {
		record.UserID = record.Owner.ID
	}

	_, err := m.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("role_name = EXCLUDED.role_name").
		Exec(ctx)
	return err
}

// DeleteRole removes a role row.
func (m *Manager) DeleteRole(ctx context.Context, role identity.UserRole) error {
	record, ok := role.(*UserRole)
	if !ok || record == nil {
		return errors.New("repository: role is not a repository.UserRole record")
	}
	_, err := m.db.NewDelete().
		Model(record).
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

// LoadRole resolves a role by its string key.
func (m *Manager) LoadRole(ctx context.Context, id string) (identity.UserRole, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}

	record, err := m.roles.GetByID(ctx, uid.String())
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindRoleByName resolves a role by exact name match.
func (m *Manager) FindRoleByName(ctx context.Context, name string) (identity.UserRole, error) {
	record := &UserRole{}
	err := m.db.NewSelect().
		Model(record).
		Where("role_name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
				"role_name": name,
			})
		}
		return nil, err
	}
	return record, nil
}

// SaveLogin upserts a login row.
func (m *Manager) SaveLogin(ctx context.Context, login identity.UserLogin) error {
	record, ok := login.(*UserLogin)
	if !ok || record == nil {
		return errors.New("repository: login is not a repository.UserLogin record")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Owner != nil {
		record.UserID = record.Owner.ID
	}

	_, err := m.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("login_provider = EXCLUDED.login_provider").
		Set("provider_key = EXCLUDED.provider_key").
		Set("provider_display_name = EXCLUDED.provider_display_name").
		Exec(ctx)
	return err
}

// DeleteLogin removes a login row.
func (m *Manager) DeleteLogin(ctx context.Context, login identity.UserLogin) error {
	record, ok := login.(*UserLogin)
	if !ok || record == nil {
		return errors.New("repository: login is not a repository.UserLogin record")
	}
	_, err := m.db.NewDelete().
		Model(record).
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

// FindLogin resolves a login row by (provider, provider key) with its owning
// user attached.
func (m *Manager) FindLogin(ctx context.Context, provider, providerKey string) (identity.UserLogin, error) {
	record := &UserLogin{}
	err := m.db.NewSelect().
		Model(record).
		Where("login_provider = ? AND provider_key = ?", provider, providerKey).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
				"login_provider": provider,
			})
		}
		return nil, err
	}

	owner, err := m.LoadUser(ctx, record.UserID.String())
	if err != nil {
		return nil, err
	}
	record.Owner = owner.(*User)
	return record, nil
}

// SaveClaim upserts a claim row.
func (m *Manager) SaveClaim(ctx context.Context, claim identity.UserClaim) error {
	record, ok := claim.(*UserClaim)
	if !ok || record == nil {
		return errors.New("repository: claim is not a repository.UserClaim record")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Owner != nil {
		record.UserID = record.Owner.ID
	}

	_, err := m.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("claim_type = EXCLUDED.claim_type").
		Set("claim_value = EXCLUDED.claim_value").
		Exec(ctx)
	return err
}

// UsersForClaim joins claim rows against users and returns the distinct
// owners of the exact (type, value) pair, collections attached.
func (m *Manager) UsersForClaim(ctx context.Context, claimType, claimValue string) ([]identity.User, error) {
	var ids []uuid.UUID
	err := m.db.NewSelect().
		Model((*UserClaim)(nil)).
		Column("iuc.user_id").
		Join("JOIN identity_users AS iu ON iu.id = iuc.user_id").
		Where("iuc.claim_type = ? AND iuc.claim_value = ?", claimType, claimValue).
		Distinct().
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	users := make([]identity.User, 0, len(ids))
	for _, id := range ids {
		user, err := m.LoadUser(ctx, id.String())
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
