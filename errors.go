package identity

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repobun "github.com/goliatone/go-repository-bun"
)

// Text codes carried by error envelopes and Result entries.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeNotImplemented     = "not_implemented"
	CodeStorageFailure     = "storage_failure"
	CodeCapabilityDisabled = "capability_disabled"
	CodeRecordNotFound     = "record_not_found"
)

// ErrInvalidArgument is returned when a required entity argument is nil
var ErrInvalidArgument = errors.New("required entity argument is nil")

// ErrNotImplemented is returned by operations the store deliberately does not
// support
var ErrNotImplemented = errors.New("operation is not implemented")

// ErrRecordNotFound is the absence signal a Database implementation may use
// for lookups that match nothing
var ErrRecordNotFound = errors.New("record not found")

// ErrCapabilityDisabled is returned when a write would need to mint a record
// for a capability the store was built without
var ErrCapabilityDisabled = errors.New("capability is disabled")

// ErrNoEmptyString is returned by the password helpers for empty input
var ErrNoEmptyString = errors.New("value cannot be an empty string")

// ErrMismatchedHashAndPassword is returned when a password does not match its
// hash
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

func invalidArgumentError(name string) error {
	return goerrors.Wrap(ErrInvalidArgument, goerrors.CategoryBadInput, "identity: "+name+" cannot be nil").
		WithTextCode(CodeInvalidArgument)
}

func notImplementedError(operation string) error {
	return goerrors.Wrap(ErrNotImplemented, goerrors.CategoryOperation, "identity: "+operation+" is not implemented").
		WithTextCode(CodeNotImplemented)
}

func storageError(err error, operation string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "identity: "+operation+" failed").
		WithTextCode(CodeStorageFailure)
}

// IsInvalidArgument reports whether err was caused by a nil entity argument.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidArgument) {
		return true
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == CodeInvalidArgument
}

// IsNotImplemented reports whether err marks a deliberately unsupported
// operation.
func IsNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotImplemented) {
		return true
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == CodeNotImplemented
}

// IsCapabilityDisabled reports whether err was caused by a write against a
// disabled capability.
func IsCapabilityDisabled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCapabilityDisabled) {
		return true
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == CodeCapabilityDisabled
}

// IsRecordNotFound reports whether err is an absence signal from the
// persistence collaborator.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRecordNotFound) ||
		repobun.IsRecordNotFound(err) ||
		goerrors.IsNotFound(err)
}

// ResultError is a single coded failure inside a Result.
type ResultError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is the uniform outcome of every mutating store operation. Failed
// results keep their errors in the order they were recorded.
type Result struct {
	Succeeded bool          `json:"succeeded"`
	Errors    []ResultError `json:"errors,omitempty"`
}

// Success returns a succeeded Result.
func Success() Result {
	return Result{Succeeded: true}
}

// Failure returns a failed Result carrying the given errors in order.
func Failure(errs ...ResultError) Result {
	return Result{Errors: errs}
}

func invalidArgumentResult(name string) Result {
	return Failure(ResultError{
		Code:        CodeInvalidArgument,
		Description: name + " cannot be nil",
	})
}

func storageFailureResult(err error) Result {
	return Failure(ResultError{
		Code:        CodeStorageFailure,
		Description: err.Error(),
	})
}
