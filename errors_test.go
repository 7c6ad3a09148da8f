package identity

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultConstruction(t *testing.T) {
	ok := Success()
	assert.True(t, ok.Succeeded)
	assert.Empty(t, ok.Errors)

	failed := Failure(
		ResultError{Code: CodeInvalidArgument, Description: "first"},
		ResultError{Code: CodeStorageFailure, Description: "second"},
	)
	assert.False(t, failed.Succeeded)
	require.Len(t, failed.Errors, 2)
	assert.Equal(t, "first", failed.Errors[0].Description)
	assert.Equal(t, "second", failed.Errors[1].Description)
}

func TestInvalidArgumentResult(t *testing.T) {
	result := invalidArgumentResult("user")
	assert.False(t, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInvalidArgument, result.Errors[0].Code)
	assert.Equal(t, "user cannot be nil", result.Errors[0].Description)
}

func TestStorageFailureResult(t *testing.T) {
	result := storageFailureResult(errors.New("boom"))
	assert.False(t, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeStorageFailure, result.Errors[0].Code)
	assert.Equal(t, "boom", result.Errors[0].Description)
}

func TestErrorConstructorsCarryTextCodes(t *testing.T) {
	err := invalidArgumentError("user")
	assert.True(t, IsInvalidArgument(err))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = notImplementedError("ReplaceClaim")
	assert.True(t, IsNotImplemented(err))
	assert.Contains(t, err.Error(), "ReplaceClaim")

	err = storageError(errors.New("boom"), "save user")
	assert.False(t, IsInvalidArgument(err))
	assert.False(t, IsNotImplemented(err))

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, CodeStorageFailure, rich.TextCode)
}

func TestErrorHelpersRejectNilAndUnrelated(t *testing.T) {
	assert.False(t, IsInvalidArgument(nil))
	assert.False(t, IsNotImplemented(nil))
	assert.False(t, IsCapabilityDisabled(nil))
	assert.False(t, IsRecordNotFound(nil))

	plain := errors.New("something else")
	assert.False(t, IsInvalidArgument(plain))
	assert.False(t, IsNotImplemented(plain))
	assert.False(t, IsCapabilityDisabled(plain))
	assert.False(t, IsRecordNotFound(plain))
}

func TestIsRecordNotFound(t *testing.T) {
	assert.True(t, IsRecordNotFound(ErrRecordNotFound))
	assert.True(t, IsRecordNotFound(fmt.Errorf("load user: %w", ErrRecordNotFound)))

	rich := goerrors.New("no such user", goerrors.CategoryNotFound)
	assert.True(t, IsRecordNotFound(rich))
}

func TestIsCapabilityDisabledMatchesSentinelAndWrapped(t *testing.T) {
	assert.True(t, IsCapabilityDisabled(ErrCapabilityDisabled))

	_, err := Capability[UserRole]{}.NewRecord()
	assert.True(t, IsCapabilityDisabled(err))
}
