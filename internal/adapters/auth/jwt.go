// Package auth issues and verifies the HS256 tokens that identify teams
// on the bidding API. Identity is a collaborator concern; the auction
// core only ever sees the resolved team ID.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTTL = 24 * time.Hour

// Claims carries the team identity inside a signed token.
type Claims struct {
	TeamID string `json:"team_id"`
	Admin  bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Verifier signs and validates team tokens with a shared HMAC secret.
type Verifier struct {
	secret []byte
	ttl    time.Duration
}

func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	v := &Verifier{
		secret: []byte(secret),
		ttl:    defaultTTL,
	}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

// Generate mints a token for the given team.
func (v *Verifier) Generate(teamID string, admin bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		TeamID: teamID,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and returns its claims.
func (v *Verifier) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.TeamID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
