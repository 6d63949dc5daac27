package ports

import (
	"context"

	"worklog/models"

	"github.com/google/uuid"
)

// ActivityRepository defines data operations for the activity aggregate.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)

	// GetByIDForUpdate loads the activity under a row-level lock. Must be
	// called inside a transaction; the lock is held until commit/rollback.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Activity, error)

	// ListStartedByUserForUpdate locks and returns every activity of the user
	// currently in the started state. Used by the exclusive-start transition.
	ListStartedByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]*models.Activity, error)

	Update(ctx context.Context, activity *models.Activity) error

	// ListByUser returns the user's activities, optionally filtered by status
	// (empty status means all), newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, status models.ActivityStatus) ([]*models.Activity, error)
}

// SessionRepository defines data operations for activity sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.ActivitySession) error

	// FindOpenByActivity returns the open session (ended_at is null) for the
	// activity, or (nil, nil) when none exists.
	FindOpenByActivity(ctx context.Context, activityID uuid.UUID) (*models.ActivitySession, error)

	Update(ctx context.Context, session *models.ActivitySession) error

	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]*models.ActivitySession, error)

	// SumClosedDurations returns the sum of duration_minutes over the
	// activity's closed sessions.
	SumClosedDurations(ctx context.Context, activityID uuid.UUID) (float64, error)

	// ClosedDurationsByCategory returns the stored durations of all closed
	// sessions whose activity belongs to the category. Used by reporting.
	ClosedDurationsByCategory(ctx context.Context, categoryID uuid.UUID) ([]float64, error)
}
