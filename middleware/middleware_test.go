package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/handlers"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

var (
	shopper = models.User{ID: "u-1", Name: "Shopper", Email: "s@example.com", PasswordHash: "hash", Role: models.RoleUser}
	admin   = models.User{ID: "u-2", Name: "Admin", Email: "a@example.com", PasswordHash: "hash", Role: models.RoleAdmin}
)

// whoami echoes the context user so tests can see what Require attached.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, ok := handlers.UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusTeapot, "no user")
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"id": user.ID, "hash": user.PasswordHash})
})

func setup(t *testing.T) (*clock.Fake, services.TokenIssuer, *AuthMiddleware) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer := services.NewTokenIssuer("middleware-secret", time.Hour, clk)
	return clk, issuer, NewAuthMiddleware(issuer, NewFixtureResolver([]models.User{shopper, admin}))
}

func bearer(t *testing.T, issuer services.TokenIssuer, userID string, role models.Role) string {
	t.Helper()
	token, _, err := issuer.Issue(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequire_RejectsMissingOrMalformedToken(t *testing.T) {
	_, _, mw := setup(t)
	h := mw.Require(whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer not-a-jwt").Code)
}

func TestRequire_AttachesUserWithoutPasswordHash(t *testing.T) {
	_, issuer, mw := setup(t)

	rec := serve(mw.Require(whoami), bearer(t, issuer, shopper.ID, shopper.Role))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u-1", body.Data["id"])
	assert.Empty(t, body.Data["hash"])
	assert.Equal(t, "hash", shopper.PasswordHash, "fixture must not be mutated")
}

func TestRequire_ExpiredTokenAndUnknownUser(t *testing.T) {
	clk, issuer, mw := setup(t)
	h := mw.Require(whoami)

	ghost := bearer(t, issuer, "ghost", models.RoleUser)
	assert.Equal(t, http.StatusUnauthorized, serve(h, ghost).Code)

	valid := bearer(t, issuer, shopper.ID, shopper.Role)
	clk.Advance(2 * time.Hour)
	assert.Equal(t, http.StatusUnauthorized, serve(h, valid).Code)
}

func TestAdminRequire(t *testing.T) {
	_, issuer, mw := setup(t)
	h := mw.Require(NewAdminMiddleware().Require(whoami))

	assert.Equal(t, http.StatusForbidden, serve(h, bearer(t, issuer, shopper.ID, shopper.Role)).Code)
	assert.Equal(t, http.StatusOK, serve(h, bearer(t, issuer, admin.ID, admin.Role)).Code)

	// Without AuthMiddleware in front there is no user at all.
	assert.Equal(t, http.StatusUnauthorized, serve(NewAdminMiddleware().Require(whoami), "").Code)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/nowhere", nil)
	rec := httptest.NewRecorder()
	NotFound(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body pkg.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Not Found - /api/nowhere", body.Error)
}
