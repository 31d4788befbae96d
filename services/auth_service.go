// Package services holds the storefront's business rules.
//
// A service sits between the HTTP handlers and the repositories: it never
// sees an http.Request and never runs SQL. Errors are returned wrapped
// around a pkg sentinel so the handler layer can map them to a status.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/email"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

const (
	bcryptCost          = 12
	resetTokenBytes     = 32
	resetTokenLifetime  = 20 * time.Minute
	forgotPasswordReply = "If an account exists for that email, a reset link has been sent."
	resetPasswordReply  = "Password has been reset. You can now sign in."
)

type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.AuthResponse, error)
	// UpdateProfile applies the set fields and returns a fresh token, since
	// the email the client shows may have changed.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.AuthResponse, error)
	// ForgotPassword answers the same message whether or not the email is
	// registered.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (string, error)
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (string, error)
	// EnsureAdmin promotes the user with this email, or creates an admin
	// account when none exists.
	EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error)
}

type authService struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	tokens TokenIssuer
	mailer email.Sender
	clock  clock.Clock
}

// NewAuthService wires the auth rules. mailer may be nil, in which case
// reset tokens are still created but only logged as "not sent".
func NewAuthService(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	tokens TokenIssuer,
	mailer email.Sender,
	clk clock.Clock,
) AuthService {
	return &authService{
		users:  users,
		resets: resets,
		tokens: tokens,
		mailer: mailer,
		clock:  clock.OrReal(clk),
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
	}

	return s.respond(user)
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.respond(user)
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*models.AuthResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewAuthResponse(user, "", time.Time{}), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return nil, err
		}
	}

	return s.respond(user)
}

func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return forgotPasswordReply, nil
		}
		return "", err
	}

	plain, hash, err := newResetToken()
	if err != nil {
		return "", err
	}

	if err := s.resets.DeleteByUserID(ctx, user.ID); err != nil {
		return "", err
	}
	if err := s.resets.Create(ctx, &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.clock.Now().Add(resetTokenLifetime),
	}); err != nil {
		return "", err
	}

	if s.mailer == nil {
		log.Printf("[auth] password reset requested for %s but email is not configured", user.ID)
		return forgotPasswordReply, nil
	}

	// Delivery failure does not change the reply.
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, plain); err != nil {
		log.Printf("[auth] failed to send password reset to user %s: %v", user.ID, err)
	}
	return forgotPasswordReply, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	token, err := s.resets.GetByTokenHash(ctx, hashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
		}
		return "", err
	}

	if !s.clock.Now().Before(token.ExpiresAt) {
		if err := s.resets.DeleteByID(ctx, token.ID); err != nil {
			log.Printf("[auth] failed to delete expired reset token: %v", err)
		}
		return "", fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
		return "", err
	}
	if err := s.resets.DeleteByUserID(ctx, token.UserID); err != nil {
		return "", err
	}

	return resetPasswordReply, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		user.Role = models.RoleAdmin
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	req := &models.RegisterRequest{Name: name, Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) respond(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return models.NewAuthResponse(user, token, expiresAt), nil
}

// newResetToken returns a random hex token and its SHA-256 hash.
func newResetToken() (plain, hash string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	plain = hex.EncodeToString(b)
	return plain, hashResetToken(plain), nil
}

func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
