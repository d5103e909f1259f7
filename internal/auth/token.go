// internal/auth/token.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims identifies a participant within one room.
type Claims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies participant tokens with an ed25519 key pair.
type Issuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// expire is the token lifetime; 0 means tokens carry no exp claim.
	expire time.Duration
}

// ParseExpireTime reads a TOKEN_EXPIRE_TIME value. "", "0" and "never" disable expiry.
func ParseExpireTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" || s == "never" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("token expire time must not be negative: %s", s)
	}
	return d, nil
}

// NewIssuer generates a fresh key pair. Tokens it signs do not survive a restart.
func NewIssuer(expire time.Duration) (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Issuer{privateKey: priv, publicKey: pub, expire: expire}, nil
}

// NewIssuerFromPath reads raw ed25519 private and public keys from disk.
func NewIssuerFromPath(privatePath, publicPath string, expire time.Duration) (*Issuer, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key files must hold raw ed25519 keys (%d and %d bytes)",
			ed25519.PrivateKeySize, ed25519.PublicKeySize)
	}
	return &Issuer{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		expire:     expire,
	}, nil
}

// CreateJWT signs a token with sub = participantID and room = roomCode. Each token gets a
// random jti so two tokens for the same participant never collide.
func (i *Issuer) CreateJWT(participantID, roomCode string) (string, error) {
	now := time.Now()
	claims := Claims{
		Room: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  participantID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.expire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(i.privateKey)
}

// AuthenticateJWT verifies tokenString and returns its claims.
func (i *Issuer) AuthenticateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid || claims.Subject == "" || claims.Room == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
