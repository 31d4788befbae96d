package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/client/api"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

func TestLoginDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)

		pkg.JSON(w, http.StatusOK, models.AuthResponse{ID: "u-1", Name: "Ada", Email: req.Email, Token: "tok"})
	}))
	defer srv.Close()

	c := api.New(srv.URL + "/api/")
	resp, err := c.Login(context.Background(), "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u-1", resp.ID)
	assert.Equal(t, "tok", resp.Token)
}

func TestBearerTokenFromSource(t *testing.T) {
	token := "abc"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		pkg.JSON(w, http.StatusOK, models.PaymentIntentResponse{ClientSecret: "pi_1_secret", Amount: 2500, Currency: "usd"})
	}))
	defer srv.Close()

	c := api.New(srv.URL, api.WithTokenSource(func() string { return token }))
	resp, err := c.CreatePaymentIntent(context.Background(), &models.PaymentIntentRequest{
		Items: []models.PaymentItem{{ID: "p1", Name: "Tee", Price: decimal.RequireFromString("25"), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", resp.ClientSecret)
	assert.EqualValues(t, 2500, resp.Amount)
}

func TestUnauthorizedIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "token expired")
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).Profile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "token expired", apiErr.Message)
}

func TestOtherErrorsCarryStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "items are required")
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).CreatePaymentIntent(context.Background(), &models.PaymentIntentRequest{})
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "items are required", apiErr.Message)
	assert.NotErrorIs(t, err, api.ErrUnauthorized)
}

func TestNonEnvelopeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).ForgotPassword(context.Background(), "a@example.com")
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestForgotPasswordMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]string{"message": "check your inbox"})
	}))
	defer srv.Close()

	msg, err := api.New(srv.URL).ForgotPassword(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "check your inbox", msg)
}
