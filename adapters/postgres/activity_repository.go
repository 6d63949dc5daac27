package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const activityColumns = `id, user_id, category_id, description, status, started_at, ended_at, duration_minutes, count, created_at, updated_at`

// ActivityRepositoryImpl implements ActivityRepository for PostgreSQL
type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new PostgreSQL activity repository
func NewActivityRepository(db *sqlx.DB) ports.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

// Create inserts a new activity
func (r *ActivityRepositoryImpl) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO activities (id, user_id, category_id, description, status, started_at, ended_at, duration_minutes, count, created_at, updated_at)
		VALUES (:id, :user_id, :category_id, :description, :status, :started_at, :ended_at, :duration_minutes, :count, NOW(), NOW())
	`, activity)
	return err
}

// GetByID retrieves an activity by ID
func (r *ActivityRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &activity, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("activity")
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetByIDForUpdate retrieves an activity under a row-level lock. The caller
// must hold an open transaction in ctx; the lock lives until commit/rollback.
func (r *ActivityRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &activity, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("activity")
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListStartedByUserForUpdate locks and returns the user's started activities.
// Rows are locked in id order so concurrent exclusive starts for the same
// user serialize instead of deadlocking.
func (r *ActivityRepositoryImpl) ListStartedByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]*models.Activity, error) {
	var activities []*models.Activity
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &activities, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE user_id = $1 AND status = 'started'
		ORDER BY id
		FOR UPDATE
	`, userID)
	return activities, err
}

// Update persists the mutable fields of an activity
func (r *ActivityRepositoryImpl) Update(ctx context.Context, activity *models.Activity) error {
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		UPDATE activities
		SET category_id = :category_id,
		    description = :description,
		    status = :status,
		    started_at = :started_at,
		    ended_at = :ended_at,
		    duration_minutes = :duration_minutes,
		    count = :count,
		    updated_at = NOW()
		WHERE id = :id
	`, activity)
	return err
}

// ListByUser returns the user's activities, optionally filtered by status
func (r *ActivityRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, status models.ActivityStatus) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	var activities []*models.Activity
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &activities, query, args...)
	return activities, err
}
