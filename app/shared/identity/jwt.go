package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Provider mints and validates bearer tokens.
type Provider interface {
	// GenerateToken creates a signed token for id, valid for ttl.
	GenerateToken(id Identity, ttl time.Duration) (string, error)

	// ValidateToken checks a token and returns the identity it carries.
	ValidateToken(tokenString string) (Identity, error)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type provider struct {
	secret []byte
	issuer string
}

// NewProvider creates an HS256 provider. issuer may be empty.
func NewProvider(secret, issuer string) Provider {
	return &provider{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (p *provider) GenerateToken(id Identity, ttl time.Duration) (string, error) {
	if id.UserID == "" || !id.Role.IsValid() {
		return "", ErrInvalidClaims
	}

	now := time.Now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   id.UserID,
			Issuer:    p.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(id.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *provider) ValidateToken(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Identity{}, ErrInvalidSignature
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{UserID: claims.Subject, Role: Role(claims.Role)}
	if id.UserID == "" || !id.Role.IsValid() {
		return Identity{}, ErrInvalidClaims
	}
	return id, nil
}
