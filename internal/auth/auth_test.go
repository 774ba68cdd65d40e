package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	tok, claims, err := m.Generate(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.NotEmpty(t, claims.ID)

	got, err := m.Validate(tok)
	require.NoError(t, err)
	uid, err := got.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
	assert.Equal(t, claims.ID, got.ID)
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)
	_, a, err := m.Generate(1)
	require.NoError(t, err)
	_, b, err := m.Generate(1)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	_, err := m.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with another key.
	other := NewTokenManager("another-secret-of-enough-length", time.Hour)
	tok, _, err := other.Generate(1)
	require.NoError(t, err)
	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	past := NewTokenManager(secret, time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err = past.Generate(1)
	require.NoError(t, err)
	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong algorithm family.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_UserID_Invalid(t *testing.T) {
	c := &Claims{}
	c.Subject = "abc"
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword_HashAndCheck(t *testing.T) {
	defer SetHashCostForTests(bcrypt.MinCost)()

	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", h)

	assert.NoError(t, CheckPassword(h, "s3cret-pass"))
	assert.ErrorIs(t, CheckPassword(h, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("garbage", "x"), ErrInvalidCredentials)
}
