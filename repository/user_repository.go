// Package repository is the data access layer.
//
// Each aggregate has an interface (what services depend on) and a SQLite
// implementation built on database.TxQuerier, so the same repository works
// on the shared connection pool or inside database.WithTx. Lookups that
// find nothing return pkg.ErrNotFound; unique-key clashes return
// pkg.ErrAlreadyExists.
package repository

import (
	"context"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Update writes the profile fields and role; the password hash is
	// changed only through UpdatePassword.
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
