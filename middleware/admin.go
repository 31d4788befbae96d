package middleware

import (
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/handlers"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

// AdminMiddleware runs after AuthMiddleware and lets only ADMIN users through.
//
//	authMw.Require(adminMw.Require(http.HandlerFunc(orderHandler.ListAll)))
type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := handlers.UserFromContext(r.Context())
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if !user.IsAdmin() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
