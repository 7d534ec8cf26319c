package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "x"), ErrInvalidCredentials)
}

func TestIssuer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer := NewIssuer("s3cret", time.Hour, clock)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		id, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})

	t.Run("expired token", func(t *testing.T) {
		later := NewIssuer("s3cret", time.Hour, func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other", time.Hour, clock)
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
