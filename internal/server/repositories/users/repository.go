// Package users declares the user store contract and its SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophsignup/internal/server/models"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts user. A username that is already taken yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
