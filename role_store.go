package identity

import (
	"context"
)

// RoleStore manages role records directly, mirroring the simpler half of the
// UserStore surface. There is no independent normalized name field: the
// normalized accessors read and write the single role name.
type RoleStore struct {
	db     Database
	logger Logger
}

// RoleStoreOption configures a RoleStore at construction.
type RoleStoreOption func(*RoleStore)

// WithRoleStoreLogger sets the store logger.
func WithRoleStoreLogger(logger Logger) RoleStoreOption {
	return func(s *RoleStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRoleStore builds a RoleStore over db.
func NewRoleStore(db Database, opts ...RoleStoreOption) *RoleStore {
	store := &RoleStore{
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

// Create persists a new role record.
func (s *RoleStore) Create(ctx context.Context, role UserRole) Result {
	return s.save(ctx, role, "create role")
}

// Update persists the role record.
func (s *RoleStore) Update(ctx context.Context, role UserRole) Result {
	return s.save(ctx, role, "update role")
}

func (s *RoleStore) save(ctx context.Context, role UserRole, operation string) Result {
	if role == nil {
		return invalidArgumentResult("role")
	}
	if err := checkContext(ctx); err != nil {
		return storageFailureResult(err)
	}
	if err := s.db.SaveRole(ctx, role); err != nil {
		s.logger.Error("identity: %s failed: %v", operation, err)
		return storageFailureResult(err)
	}
	return Success()
}

// Delete removes the persisted role record.
func (s *RoleStore) Delete(ctx context.Context, role UserRole) Result {
	if role == nil {
		return invalidArgumentResult("role")
	}
	if err := checkContext(ctx); err != nil {
		return storageFailureResult(err)
	}
	if err := s.db.DeleteRole(ctx, role); err != nil {
		s.logger.Error("identity: delete role failed: %v", err)
		return storageFailureResult(err)
	}
	return Success()
}

// FindByID returns the role with the given id, or nil when no role matches.
func (s *RoleStore) FindByID(ctx context.Context, id string) (UserRole, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	role, err := s.db.LoadRole(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find role by id")
	}
	return role, nil
}

// FindByName returns the role whose name equals name exactly, or nil when no
// role matches.
func (s *RoleStore) FindByName(ctx context.Context, name string) (UserRole, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	role, err := s.db.FindRoleByName(ctx, name)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "find role by name")
	}
	return role, nil
}

// GetRoleID returns the role's identifier.
func (s *RoleStore) GetRoleID(ctx context.Context, role UserRole) (string, error) {
	if role == nil {
		return "", invalidArgumentError("role")
	}
	return role.GetID(), nil
}

// GetRoleName returns the role's name.
func (s *RoleStore) GetRoleName(ctx context.Context, role UserRole) (string, error) {
	if role == nil {
		return "", invalidArgumentError("role")
	}
	return role.GetRoleName(), nil
}

// GetNormalizedRoleName returns the role's name; there is no separate
// normalized field.
func (s *RoleStore) GetNormalizedRoleName(ctx context.Context, role UserRole) (string, error) {
	if role == nil {
		return "", invalidArgumentError("role")
	}
	return role.GetRoleName(), nil
}

// SetRoleName writes the role name and persists the record immediately.
func (s *RoleStore) SetRoleName(ctx context.Context, role UserRole, name string) error {
	return s.setName(ctx, role, name)
}

// SetNormalizedRoleName writes the same single role name field as
// SetRoleName and persists the record immediately.
func (s *RoleStore) SetNormalizedRoleName(ctx context.Context, role UserRole, name string) error {
	return s.setName(ctx, role, name)
}

func (s *RoleStore) setName(ctx context.Context, role UserRole, name string) error {
	if role == nil {
		return invalidArgumentError("role")
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	role.SetRoleName(name)
	if err := s.db.SaveRole(ctx, role); err != nil {
		s.logger.Error("identity: set role name failed: %v", err)
		return storageError(err, "set role name")
	}
	return nil
}
