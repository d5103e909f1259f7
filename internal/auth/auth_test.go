// internal/auth/auth_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpireTime(t *testing.T) {
	for _, never := range []string{"", "0", "never", " never "} {
		d, err := ParseExpireTime(never)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseExpireTime("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseExpireTime("soon")
	assert.Error(t, err)
	_, err = ParseExpireTime("-1h")
	assert.Error(t, err)
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer(0)
	require.NoError(t, err)

	a, err := issuer.CreateJWT("player-1", "ABC123")
	require.NoError(t, err)
	b, err := issuer.CreateJWT("player-1", "ABC123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "tokens carry a unique jti")

	claims, err := issuer.AuthenticateJWT(a)
	require.NoError(t, err)
	assert.Equal(t, "player-1", claims.Subject)
	assert.Equal(t, "ABC123", claims.Room)
	assert.Nil(t, claims.ExpiresAt)
}

func TestIssuerRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer, err := NewIssuer(0)
	require.NoError(t, err)
	other, err := NewIssuer(0)
	require.NoError(t, err)

	foreign, err := other.CreateJWT("p", "ABC123")
	require.NoError(t, err)
	_, err = issuer.AuthenticateJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.AuthenticateJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		Room: "ABC123",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "p",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString(issuer.privateKey)
	require.NoError(t, err)
	_, err = issuer.AuthenticateJWT(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Room: "ABC123", RegisteredClaims: jwt.RegisteredClaims{Subject: "p"}})
	hsSigned, err := hs.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.AuthenticateJWT(hsSigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerWithExpiry(t *testing.T) {
	issuer, err := NewIssuer(time.Hour)
	require.NoError(t, err)
	token, err := issuer.CreateJWT("p", "ABC123")
	require.NoError(t, err)
	claims, err := issuer.AuthenticateJWT(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestNewIssuerFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	issuer, err := NewIssuerFromPath(privPath, pubPath, 0)
	require.NoError(t, err)
	token, err := issuer.CreateJWT("p", "ABC123")
	require.NoError(t, err)
	_, err = issuer.AuthenticateJWT(token)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(pubPath, []byte("short"), 0o644))
	_, err = NewIssuerFromPath(privPath, pubPath, 0)
	assert.Error(t, err)
	_, err = NewIssuerFromPath(filepath.Join(dir, "missing"), pubPath, 0)
	assert.Error(t, err)
}

func TestPassphraseHash(t *testing.T) {
	hash, err := HashPassphrase("open sesame", DefaultHashParams)
	require.NoError(t, err)

	ok, err := ComparePassphrase("open sesame", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePassphrase("open sesame!", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassphrase("open sesame", DefaultHashParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ per hash")

	_, err = ComparePassphrase("x", "$argon2id$v=19$broken")
	assert.ErrorIs(t, err, ErrInvalidHash)
	_, err = ComparePassphrase("x", "$argon2id$v=1$m=1,t=1,p=1$AAAA$AAAA")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
