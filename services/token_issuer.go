package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
)

const tokenIssuer = "luxe"

// TokenIssuer signs and verifies the bearer tokens the storefront hands out
// on login and register.
type TokenIssuer interface {
	Issue(userID string, role models.Role) (token string, expiresAt time.Time, err error)
	Verify(token string) (*models.TokenClaims, error)
}

type jwtIssuer struct {
	secret []byte
	expiry time.Duration
	clock  clock.Clock
}

// NewTokenIssuer builds an HS256 issuer. An empty secret is accepted here
// and reported as pkg.ErrConfig on use, so a misconfigured server fails
// loudly on the first request instead of signing with an empty key.
func NewTokenIssuer(secret string, expiry time.Duration, clk clock.Clock) TokenIssuer {
	return &jwtIssuer{
		secret: []byte(secret),
		expiry: expiry,
		clock:  clock.OrReal(clk),
	}
}

func (i *jwtIssuer) Issue(userID string, role models.Role) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: JWT secret is not set", pkg.ErrConfig)
	}

	now := i.clock.Now()
	expiresAt := now.Add(i.expiry)

	claims := models.TokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *jwtIssuer) Verify(tokenString string) (*models.TokenClaims, error) {
	if len(i.secret) == 0 {
		return nil, fmt.Errorf("%w: JWT secret is not set", pkg.ErrConfig)
	}

	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", pkg.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no subject", pkg.ErrUnauthorized)
	}
	return claims, nil
}
