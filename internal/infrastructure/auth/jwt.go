// Package auth issues and validates the bearer tokens of the admin API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/wmsconnector/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeAdmin grants access to the manual sync triggers
const ScopeAdmin = "wms:admin"

// Common errors
var (
	ErrMissingSecret    = errors.New("admin jwt secret is not configured")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims are the admin token claims
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
	Scope    string `json:"scope"`
}

// TokenService signs and validates HS256 admin tokens
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService. An empty secret is an error.
func NewTokenService(cfg config.AdminConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, ErrMissingSecret
	}
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for operator valid for ttl
func (s *TokenService) Issue(operator string, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(operator) == "" {
		return "", time.Time{}, fmt.Errorf("%w: operator is required", ErrInvalidClaims)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: ttl must be positive", ErrInvalidClaims)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Operator: operator,
		Scope:    ScopeAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and checks signature, issuer, lifetime and scope
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Scope != ScopeAdmin || claims.Operator == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
