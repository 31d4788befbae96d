package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of a bearer token. It lives in models because
// services, middleware and ws all read it.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
