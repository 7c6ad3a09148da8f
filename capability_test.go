package identity_test

import (
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityZeroValueIsDisabled(t *testing.T) {
	var roles identity.Capability[identity.UserRole]
	assert.False(t, roles.IsEnabled())

	record, err := roles.NewRecord()
	require.Error(t, err)
	assert.True(t, identity.IsCapabilityDisabled(err))
	assert.Nil(t, record)
}

func TestCapabilityNilConstructorIsDisabled(t *testing.T) {
	claims := identity.NewCapability[identity.UserClaim](nil)
	assert.False(t, claims.IsEnabled())

	_, err := claims.NewRecord()
	assert.True(t, identity.IsCapabilityDisabled(err))
}

func TestCapabilityMintsRecords(t *testing.T) {
	roles := identity.NewCapability(newMemRole)
	require.True(t, roles.IsEnabled())

	record, err := roles.NewRecord()
	require.NoError(t, err)
	require.NotNil(t, record)

	record.SetRoleName("admin")
	assert.Equal(t, "admin", record.GetRoleName())

	second, err := roles.NewRecord()
	require.NoError(t, err)
	assert.Empty(t, second.GetRoleName(), "each mint is a fresh record")
}
