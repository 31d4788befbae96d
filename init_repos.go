// Package main wires the storefront server together.
//
// main.go owns the order: config → database → repositories → hub →
// services → handlers → routes → CORS → server → graceful shutdown.
// Each init_*.go file builds one layer into a container struct so the next
// layer takes a single argument.
package main

import (
	"database/sql"

	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

type Repositories struct {
	User       repository.UserRepository
	ResetToken repository.PasswordResetRepository
	Category   repository.CategoryRepository
	Product    repository.ProductRepository
	Review     repository.ReviewRepository
	Cart       repository.CartRepository
	Order      repository.OrderRepository
}

// initRepositories shares one *sql.DB pool across every repository.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(conn),
		ResetToken: repository.NewSQLiteResetTokenRepo(conn),
		Category:   repository.NewSQLiteCategoryRepo(conn),
		Product:    repository.NewSQLiteProductRepo(conn),
		Review:     repository.NewSQLiteReviewRepo(conn),
		Cart:       repository.NewSQLiteCartRepo(conn),
		Order:      repository.NewSQLiteOrderRepo(conn),
	}
}
