package postgres

import (
	"context"
	"database/sql"
	"errors"

	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var defaultUserID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// GetOrCreateDefaultUser gets the default admin user or creates it if it doesn't exist
func (r *UserRepositoryImpl) GetOrCreateDefaultUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, `
		SELECT id, email, username, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, defaultUserID)

	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	user = models.User{
		ID:       defaultUserID,
		Email:    "admin@worklog.local",
		Username: "admin",
		IsAdmin:  true,
		IsActive: true,
	}

	_, err = sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO users (id, email, username, is_admin, is_active, created_at, updated_at)
		VALUES (:id, :email, :username, :is_admin, :is_active, NOW(), NOW())
	`, user)

	if err != nil {
		// Handle unique constraint violation (user might have been created by another process)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return r.GetByID(ctx, defaultUserID)
		}
		return nil, err
	}

	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, `
		SELECT id, email, username, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO users (id, email, username, is_admin, is_active, created_at, updated_at)
		VALUES (:id, :email, :username, :is_admin, :is_active, NOW(), NOW())
	`, user)
	return err
}

// List returns all users
func (r *UserRepositoryImpl) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &users, `
		SELECT id, email, username, is_admin, is_active, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)
	return users, err
}
