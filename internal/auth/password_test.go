package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cr3t-passw0rd")
	require.NoError(t, err)
	require.NotEqual(t, "s3cr3t-passw0rd", hash)

	assert.True(t, CheckPassword(hash, "s3cr3t-passw0rd"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
	assert.False(t, CheckPassword("", "s3cr3t-passw0rd"))
}

func TestGenerateTempPassword(t *testing.T) {
	first, err := GenerateTempPassword()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(first), 12)

	second, err := GenerateTempPassword()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
