package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/processflow/internal/domain"
)

const (
	tokenIssuer     = "processflow"
	defaultTokenTTL = time.Hour
	clockSkewLeeway = 30 * time.Second
)

var (
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other rejection.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the access token payload. The role is informational; the
// middleware always reloads the user.
type Claims struct {
	UserID   string      `json:"uid"`
	TenantID string      `json:"tid"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenManager builds a manager. A non-positive ttl falls back to one hour.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	ttl := time.Duration(ttlMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkewLeeway),
		),
		now: time.Now,
	}
}

// GenerateToken issues a token scoped to the user's tenant.
func (tm *TokenManager) GenerateToken(user *domain.User) (string, time.Time, error) {
	issuedAt := tm.now().UTC()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{user.TenantID},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies the signature, issuer and expiry.
func (tm *TokenManager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := tm.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case claims.UserID == "" || claims.TenantID == "":
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
