package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestArgon2RoundTrip(t *testing.T) {
	hash, err := Hash("kasse-2025")
	require.NoError(t, err)
	assert.True(t, Verify("kasse-2025", hash))
	assert.False(t, Verify("kasse-2024", hash))
}

func TestVerifyBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("kasse-2025"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, Verify("kasse-2025", string(hash)))
	assert.False(t, Verify("falsch", string(hash)))
}

func TestVerifyUnknownFormat(t *testing.T) {
	assert.False(t, Verify("x", "plaintext"))
	assert.False(t, Verify("x", "$argon2id$v=19$broken"))
}
