// Package middleware holds the func(http.Handler) http.Handler layers that
// run before a handler: bearer-token auth, the admin gate, panic recovery.
//
// Order on a protected admin route:
//
//	Recover → AuthMiddleware.Require → AdminMiddleware.Require → handler
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kalp9197/luxe-ecommerce-site/handlers"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

// IdentityResolver maps verified token claims to the user they belong to.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims *models.TokenClaims) (*models.User, error)
}

// RepositoryResolver always reads the user from the durable store.
type RepositoryResolver struct {
	users repository.UserRepository
}

func NewRepositoryResolver(users repository.UserRepository) *RepositoryResolver {
	return &RepositoryResolver{users: users}
}

func (r *RepositoryResolver) Resolve(ctx context.Context, claims *models.TokenClaims) (*models.User, error) {
	return r.users.GetByID(ctx, claims.UserID)
}

// FixtureResolver serves a fixed set of users from memory. It is for demo
// deployments and tests only and is selected by configuration, never as a
// fallback for a failing store.
type FixtureResolver struct {
	users map[string]models.User
}

func NewFixtureResolver(users []models.User) *FixtureResolver {
	m := make(map[string]models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &FixtureResolver{users: m}
}

func (r *FixtureResolver) Resolve(_ context.Context, claims *models.TokenClaims) (*models.User, error) {
	u, ok := r.users[claims.UserID]
	if !ok {
		return nil, fmt.Errorf("%w: fixture user %s", pkg.ErrNotFound, claims.UserID)
	}
	return &u, nil
}

type AuthMiddleware struct {
	tokens     services.TokenIssuer
	identities IdentityResolver
}

func NewAuthMiddleware(tokens services.TokenIssuer, identities IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, identities: identities}
}

// Require rejects the request with 401 unless it carries
// "Authorization: Bearer <token>" for a user that still exists.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.identities.Resolve(r.Context(), claims)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
				return
			}
			pkg.Error(w, err)
			return
		}

		user.PasswordHash = ""

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	})
}
