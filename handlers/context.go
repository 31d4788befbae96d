// Package handlers turns HTTP requests into service calls.
//
// Handlers stay thin: decode the body, call one service method, write the
// envelope with pkg.JSON or pkg.Error. Business rules and status decisions
// live in services; the sentinel wrapped in the returned error picks the
// status code.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type contextKey string

// UserContextKey carries the authenticated *models.User set by
// middleware.AuthMiddleware.
const UserContextKey contextKey = "user"

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// requireUser writes 401 when the route was mounted without auth.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
