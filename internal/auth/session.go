// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/identity"
)

// Tokens signs and verifies ed25519 JWTs whose "sub" claim is a user id.
// A Tokens without a private key can only verify.
type Tokens struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	// expiry of issued tokens; 0 means no exp claim
	expiry time.Duration
}

// Generate creates Tokens with a fresh key pair. Tokens signed by one
// process are not accepted by another.
func Generate(expiry time.Duration) (*Tokens, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Tokens{privateKey: priv, publicKey: pub, expiry: expiry}, nil
}

// LoadFromPath reads raw ed25519 keys. privatePath may be empty for a
// verify-only instance.
func LoadFromPath(privatePath, publicPath string, expiry time.Duration) (*Tokens, error) {
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key file %s: want %d bytes, got %d", publicPath, ed25519.PublicKeySize, len(publicKeyData))
	}
	t := &Tokens{publicKey: ed25519.PublicKey(publicKeyData), expiry: expiry}

	if privatePath != "" {
		privateKeyData, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		if len(privateKeyData) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("private key file %s: want %d bytes, got %d", privatePath, ed25519.PrivateKeySize, len(privateKeyData))
		}
		t.privateKey = ed25519.PrivateKey(privateKeyData)
	}
	return t, nil
}

// CreateToken signs a token for userID.
func (t *Tokens) CreateToken(userID uuid.UUID) (string, error) {
	if t.privateKey == nil {
		return "", fmt.Errorf("token signing disabled: no private key loaded")
	}
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": time.Now().Unix(),
	}
	if t.expiry > 0 {
		claims["exp"] = time.Now().Add(t.expiry).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(t.privateKey)
}

// Verify checks the signature and expiry of tokenString and returns the
// user id in its "sub" claim. Every failure wraps identity.ErrInvalidToken.
func (t *Tokens) Verify(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: jwt parse error: %v", identity.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return uuid.Nil, identity.ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("%w: missing sub in jwt", identity.ErrInvalidToken)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: sub is not a user id: %v", identity.ErrInvalidToken, err)
	}
	return userID, nil
}

var _ identity.TokenVerifier = (*Tokens)(nil)
