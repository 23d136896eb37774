package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := Generate("secreto", "u-1", RoleBodeguero, "kardex-api", 5)
	require.NoError(t, err)

	userID, role, err := Parse("secreto", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := Generate("secreto", "u-1", RoleAdmin, "kardex-api", 5)
	require.NoError(t, err)

	_, _, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tok, err := Generate("secreto", "u-1", RoleAdmin, "kardex-api", -1)
	require.NoError(t, err)

	_, _, err = Parse("secreto", tok)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", "u-1", RoleAdmin, "kardex-api", 5)
	assert.Error(t, err)
	_, _, err = Parse("", "x")
	assert.Error(t, err)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleBodeguero))
	assert.True(t, ValidRole(RoleAuditor))
	assert.False(t, ValidRole("vendedor"))
	assert.False(t, ValidRole(""))
}
