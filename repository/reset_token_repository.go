package repository

import (
	"context"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

// PasswordResetRepository stores reset tokens by hash. A user has at most
// one outstanding token: callers delete by user before creating.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}
