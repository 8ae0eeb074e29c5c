// Package security issues and verifies the bearer tokens the HTTP
// layer trades for an authz.Principal. Token issuance itself sits
// outside the authorisation core (spec.md §1); this package is the
// thin edge that turns a login into a signed token and a token back
// into a Principal, the way tradeengine's internal/auth does it.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the JWT payload carrying exactly what authz.Principal needs.
type Claims struct {
	StaffID   string `json:"staff_id,omitempty"`
	Role      string `json:"role"`
	IsWebhook bool   `json:"is_webhook,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a bearer token for p, valid for the issuer's configured TTL.
func (iss *Issuer) Issue(p authz.Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		StaffID:   p.ID.String(),
		Role:      string(p.Role),
		IsWebhook: p.IsWebhook,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(iss.secret)
}

// Verify parses and validates tokenString, returning the Principal it encodes.
func (iss *Issuer) Verify(tokenString string) (authz.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return iss.secret, nil
	})
	if err != nil || !token.Valid {
		return authz.Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return authz.Principal{}, ErrInvalidToken
	}

	p := authz.Principal{Role: models.Role(claims.Role), IsWebhook: claims.IsWebhook}
	if claims.StaffID != "" {
		id, err := uuid.Parse(claims.StaffID)
		if err != nil {
			return authz.Principal{}, ErrInvalidToken
		}
		p.ID = id
	}
	return p, nil
}
