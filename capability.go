package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

// Capability marks one of the optional sub-entity kinds (roles, logins,
// claims) as enabled for a deployment and carries the constructor used to
// mint new records of that kind. The zero value is the disabled state: read
// operations answer with empty results and any write that would need a new
// record fails with a capability-disabled error.
//
// Enabling or disabling a capability is a construction-time decision, never a
// per-call one.
type Capability[T any] struct {
	newRecord func() T
}

// NewCapability returns an enabled capability minting records with newRecord.
// A nil constructor yields the disabled capability.
func NewCapability[T any](newRecord func() T) Capability[T] {
	return Capability[T]{newRecord: newRecord}
}

// IsEnabled reports whether the capability was configured with a record
// constructor.
func (c Capability[T]) IsEnabled() bool {
	return c.newRecord != nil
}

// NewRecord mints a new, unsaved record. It fails when the capability is
// disabled; the stores surface that as the write being unavailable rather
// than ever instantiating a placeholder record.
func (c Capability[T]) NewRecord() (T, error) {
	if c.newRecord == nil {
		var zero T
		return zero, goerrors.Wrap(ErrCapabilityDisabled, goerrors.CategoryOperation, "identity: capability is disabled").
			WithTextCode(CodeCapabilityDisabled)
	}
	return c.newRecord(), nil
}
