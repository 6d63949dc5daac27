package ports

import (
	"context"

	"worklog/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetOrCreateDefaultUser gets the default admin user or creates it if it
	// doesn't exist. Used by bootstrap and the import tool.
	GetOrCreateDefaultUser(ctx context.Context) (*models.User, error)

	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	Create(ctx context.Context, user *models.User) error

	List(ctx context.Context) ([]*models.User, error)
}
