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

const taskColumns = `id, title, description, category_id, creator_id, assignee_id, due_date, status, review_note, submitted_at, reviewed_at, created_at, updated_at`

// TaskRepositoryImpl implements TaskRepository for PostgreSQL
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// Create inserts a new task
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO tasks (id, title, description, category_id, creator_id, assignee_id, due_date, status, review_note, submitted_at, reviewed_at, created_at, updated_at)
		VALUES (:id, :title, :description, :category_id, :creator_id, :assignee_id, :due_date, :status, :review_note, :submitted_at, :reviewed_at, NOW(), NOW())
	`, task)
	return err
}

// GetByID retrieves a task by ID
func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &task, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("task")
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update persists the mutable fields of a task
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		UPDATE tasks
		SET title = :title,
		    description = :description,
		    category_id = :category_id,
		    assignee_id = :assignee_id,
		    due_date = :due_date,
		    status = :status,
		    review_note = :review_note,
		    submitted_at = :submitted_at,
		    reviewed_at = :reviewed_at,
		    updated_at = NOW()
		WHERE id = :id
	`, task)
	return err
}

// ListByAssignee returns tasks assigned to the user, optionally filtered by status
func (r *TaskRepositoryImpl) ListByAssignee(ctx context.Context, assigneeID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assignee_id = $1
	`
	args := []interface{}{assigneeID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	var tasks []*models.Task
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &tasks, query, args...)
	return tasks, err
}

// ListByCreator returns tasks created by the user, newest first
func (r *TaskRepositoryImpl) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Task, error) {
	var tasks []*models.Task
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &tasks, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, creatorID)
	return tasks, err
}
