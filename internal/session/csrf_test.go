package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFRoundTrip(t *testing.T) {
	key, err := DeriveKey("master", "csrf")
	require.NoError(t, err)
	mgr := NewCSRFManager(key)
	sess := newSession()

	token, err := mgr.EnsureToken(sess)
	require.NoError(t, err)
	again, err := mgr.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, mgr.VerifyToken(sess, token))
	assert.ErrorIs(t, mgr.VerifyToken(sess, "nope"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, mgr.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, mgr.VerifyToken(newSession(), token), ErrCSRFTokenMissing)
}

func TestDeriveKeyIsPurposeBound(t *testing.T) {
	a, err := DeriveKey("master", "csrf")
	require.NoError(t, err)
	b, err := DeriveKey("master", "other")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	_, err = DeriveKey("", "csrf")
	assert.Error(t, err)
}
