package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := Password("correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, h, "correct horse")

	assert.True(t, ComparePassword(h, "correct horse battery staple"))
	assert.False(t, ComparePassword(h, "wrong"))
	assert.False(t, ComparePassword("not a hash", "correct horse battery staple"))
}

func TestTokenRoundTrip(t *testing.T) {
	h, err := Token("some.signed.token")
	require.NoError(t, err)
	assert.True(t, CompareToken(h, "some.signed.token"))
	assert.False(t, CompareToken(h, "other.signed.token"))
}

// Two JWTs minted in the same second share a long common prefix; the
// pre-digest must keep them distinguishable past bcrypt's 72-byte window.
func TestTokenLongSharedPrefix(t *testing.T) {
	prefix := strings.Repeat("eyJhbGciOiJIUzI1NiJ9", 8)
	a := prefix + ".signature-one"
	b := prefix + ".signature-two"

	h, err := Token(a)
	require.NoError(t, err)
	assert.True(t, CompareToken(h, a))
	assert.False(t, CompareToken(h, b))
}
