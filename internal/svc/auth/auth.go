// Package auth issues and validates the bearer credentials the compile
// service uses, grounded in github.com/dekarrin/tunaq's server token
// handling (server/token.go) for the JWT shape and golang.org/x/crypto's
// bcrypt package for API key hashing — tunaq hashes user passwords the
// same way; here the secret being hashed is a generated API key instead of
// a user-chosen password.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/narratr/internal/svc/dao"
)

// GenerateAPIKey returns a new random raw API key, suitable for showing to
// the caller exactly once, and its bcrypt hash for persistence.
func GenerateAPIKey() (raw string, hash []byte, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate random key: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)

	hash, err = bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash key: %w", err)
	}
	return raw, hash, nil
}

// VerifyAPIKey reports whether raw matches the bcrypt hash persisted for it.
func VerifyAPIKey(hash []byte, raw string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(raw)) == nil
}

// Claims is the JWT payload issued after a successful API key exchange.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID uuid.UUID `json:"oid"`
}

// IssueToken signs a bearer token for ownerID valid for ttl, the way
// tunaq's login endpoint issues a session JWT.
func IssueToken(secret []byte, ownerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OwnerID: ownerID,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning the owner id
// it was issued for.
func ValidateToken(secret []byte, tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}
	return claims.OwnerID, nil
}

// ExchangeAPIKey looks up the API key by id, checks raw against its hash,
// and issues a bearer token for its owner if it matches.
func ExchangeAPIKey(ctx context.Context, keys dao.APIKeyRepository, secret []byte, keyID uuid.UUID, raw string, ttl time.Duration) (string, error) {
	k, err := keys.GetByID(ctx, keyID)
	if err != nil {
		return "", err
	}
	if !VerifyAPIKey(k.Hash, raw) {
		return "", fmt.Errorf("invalid API key")
	}
	return IssueToken(secret, k.OwnerID, ttl)
}
