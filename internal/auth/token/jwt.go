package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/corpsledger/internal/auth/domain"
)

const issuer = "corpsledger"

// Issue signs an HS256 token for principal valid until expiresAt.
func Issue(p domain.Principal, now, expiresAt time.Time, key []byte) (string, error) {
	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: p.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns its principal.
func Parse(raw string, now time.Time, key []byte) (*domain.Principal, error) {
	claims := new(domain.Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	switch claims.Role {
	case domain.RoleAdmin, domain.RoleMember:
	default:
		return nil, domain.ErrInvalidToken
	}
	return &domain.Principal{Email: claims.Subject, Role: claims.Role}, nil
}
