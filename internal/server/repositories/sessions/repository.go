// Package sessions declares the session store contract and its SQL
// implementation.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/gophsignup/internal/server/models"
)

// Repository defines operations for creating, retrieving, and revoking sessions.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *models.Session) error

	// Find looks up a session by id. Returns common.ErrorNotFound when absent.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session by id. Deleting a non-existent session is not
	// an error.
	Delete(ctx context.Context, id string) error
}
