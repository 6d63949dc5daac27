package postgres

import (
	"context"
	"database/sql"
	"errors"

	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id, activity_id, started_at, ended_at, duration_minutes, created_at`

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create inserts a new session
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *models.ActivitySession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO activity_sessions (id, activity_id, started_at, ended_at, duration_minutes, created_at)
		VALUES (:id, :activity_id, :started_at, :ended_at, :duration_minutes, NOW())
	`, session)
	return err
}

// FindOpenByActivity returns the open session for the activity or (nil, nil)
// when none exists. Ordered by started_at so the oldest open session wins if
// a data anomaly ever leaves more than one.
func (r *SessionRepositoryImpl) FindOpenByActivity(ctx context.Context, activityID uuid.UUID) (*models.ActivitySession, error) {
	var session models.ActivitySession
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &session, `
		SELECT `+sessionColumns+`
		FROM activity_sessions
		WHERE activity_id = $1 AND ended_at IS NULL
		ORDER BY started_at
		LIMIT 1
	`, activityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update persists the mutable fields of a session
func (r *SessionRepositoryImpl) Update(ctx context.Context, session *models.ActivitySession) error {
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		UPDATE activity_sessions
		SET started_at = :started_at,
		    ended_at = :ended_at,
		    duration_minutes = :duration_minutes
		WHERE id = :id
	`, session)
	return err
}

// ListByActivity returns all sessions of an activity, oldest first
func (r *SessionRepositoryImpl) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]*models.ActivitySession, error) {
	var sessions []*models.ActivitySession
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &sessions, `
		SELECT `+sessionColumns+`
		FROM activity_sessions
		WHERE activity_id = $1
		ORDER BY started_at
	`, activityID)
	return sessions, err
}

// SumClosedDurations returns the sum of stored durations over closed sessions
func (r *SessionRepositoryImpl) SumClosedDurations(ctx context.Context, activityID uuid.UUID) (float64, error) {
	var total float64
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &total, `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM activity_sessions
		WHERE activity_id = $1 AND ended_at IS NOT NULL
	`, activityID)
	return total, err
}

// ClosedDurationsByCategory returns stored durations of closed sessions whose
// activity belongs to the category
func (r *SessionRepositoryImpl) ClosedDurationsByCategory(ctx context.Context, categoryID uuid.UUID) ([]float64, error) {
	var durations []float64
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &durations, `
		SELECT s.duration_minutes
		FROM activity_sessions s
		JOIN activities a ON a.id = s.activity_id
		WHERE a.category_id = $1 AND s.ended_at IS NOT NULL
		ORDER BY s.started_at
	`, categoryID)
	return durations, err
}
