package ports

import (
	"context"

	"worklog/models"

	"github.com/google/uuid"
)

// TaskRepository defines data operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error

	// ListByAssignee returns tasks assigned to the user, optionally filtered
	// by status (empty status means all), newest first.
	ListByAssignee(ctx context.Context, assigneeID uuid.UUID, status models.TaskStatus) ([]*models.Task, error)

	// ListByCreator returns tasks created by the user, newest first.
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Task, error)
}
