package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	clk := clock.NewFake(testStart)
	issuer := NewTokenIssuer("secret", 30*24*time.Hour, clk)

	token, expiresAt, err := issuer.Issue("user-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(30*24*time.Hour), expiresAt)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	clk.Advance(30*24*time.Hour + time.Second)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	clk := clock.NewFake(testStart)
	token, _, err := NewTokenIssuer("one", time.Hour, clk).Issue("u", models.RoleUser)
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour, clk).Verify(token)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = NewTokenIssuer("two", time.Hour, clk).Verify("not-a-jwt")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestTokenIssuer_EmptySecretIsConfigError(t *testing.T) {
	issuer := NewTokenIssuer("", time.Hour, nil)

	_, _, err := issuer.Issue("u", models.RoleUser)
	assert.ErrorIs(t, err, pkg.ErrConfig)

	_, err = issuer.Verify("anything")
	assert.ErrorIs(t, err, pkg.ErrConfig)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	reg, err := env.auth.Register(ctx, &models.RegisterRequest{
		Name: "Ada", Email: "Ada@Example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.Email)
	assert.Equal(t, models.RoleUser, reg.Role)
	assert.NotEmpty(t, reg.Token)

	_, err = env.auth.Register(ctx, &models.RegisterRequest{
		Name: "Ada 2", Email: "ada@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	login, err := env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.ID, login.ID)

	claims, err := env.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, claims.UserID)

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "", Password: ""})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []models.RegisterRequest{
		{Name: "", Email: "a@example.com", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "12345"},
	}
	for _, req := range cases {
		_, err := env.auth.Register(context.Background(), &req)
		assert.ErrorIs(t, err, pkg.ErrBadRequest, "%+v", req)
	}
}

func TestAuthService_UpdateProfileKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	reg, err := env.auth.Register(ctx, &models.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
	require.NoError(t, err)

	phone := "+33 1 23 45 67 89"
	updated, err := env.auth.UpdateProfile(ctx, reg.ID, &models.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Bo", updated.Name)
	assert.Equal(t, "bo@example.com", updated.Email)
	assert.Equal(t, phone, updated.Phone)
	assert.NotEmpty(t, updated.Token)

	profile, err := env.auth.GetProfile(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, phone, profile.Phone)
	assert.Empty(t, profile.Token)

	_, err = env.auth.GetProfile(ctx, "gone")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, &models.RegisterRequest{Name: "Cy", Email: "cy@example.com", Password: "secret1"})
	require.NoError(t, err)

	unknown, err := env.auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	known, err := env.auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "cy@example.com"})
	require.NoError(t, err)
	assert.Equal(t, unknown, known)

	require.Equal(t, "cy@example.com", env.mailer.to)
	require.NotEmpty(t, env.mailer.token)

	_, err = env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: "bogus", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: env.mailer.token, NewPassword: "newpass1"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "cy@example.com", Password: "newpass1"})
	require.NoError(t, err)

	// Tokens are single use.
	_, err = env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: env.mailer.token, NewPassword: "another1"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_ResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, &models.RegisterRequest{Name: "Di", Email: "di@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = env.auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "di@example.com"})
	require.NoError(t, err)

	env.clock.Advance(21 * time.Minute)

	_, err = env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: env.mailer.token, NewPassword: "newpass1"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.auth.EnsureAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, created.IsAdmin())

	u := env.user(t, "promote@example.com")
	promoted, err := env.auth.EnsureAdmin(ctx, "", "promote@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin())
}
