package migration

import (
	"context"
	"fmt"

	"worklog/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createDepartmentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create departments table")
	}

	if err := r.createWorkRolesTables(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create work role tables")
	}

	if err := r.createCategoriesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create activity_categories table")
	}

	if err := r.createRoleCategoriesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create work_role_categories table")
	}

	if err := r.createActivitiesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create activities table")
	}

	if err := r.createSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create activity_sessions table")
	}

	if err := r.createTasksTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create tasks table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.insertSeedRows(ctx, db); err != nil {
		return errors.Wrap(err, "failed to insert seed rows")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100) UNIQUE,
			is_admin BOOLEAN DEFAULT false,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createDepartmentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS departments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) UNIQUE NOT NULL,
			code VARCHAR(10) UNIQUE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createWorkRolesTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS work_roles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) UNIQUE NOT NULL,
			department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_work_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			work_role_id UUID NOT NULL REFERENCES work_roles(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, work_role_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createCategoriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			parent_id UUID REFERENCES activity_categories(id) ON DELETE CASCADE,
			department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
			code VARCHAR(100) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			standard_time DECIMAL(10,2),
			definition TEXT NOT NULL DEFAULT '',
			reference_protocol TEXT NOT NULL DEFAULT '',
			objective TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createRoleCategoriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS work_role_categories (
			work_role_id UUID NOT NULL REFERENCES work_roles(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES activity_categories(id) ON DELETE CASCADE,
			PRIMARY KEY (work_role_id, category_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createActivitiesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES activity_categories(id),
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'started',
			started_at TIMESTAMP WITH TIME ZONE,
			ended_at TIMESTAMP WITH TIME ZONE,
			duration_minutes DECIMAL(12,2) NOT NULL DEFAULT 0 CHECK (duration_minutes >= 0),
			count INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createSessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			ended_at TIMESTAMP WITH TIME ZONE,
			duration_minutes DECIMAL(12,2),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			CONSTRAINT session_end_after_start CHECK (ended_at IS NULL OR ended_at >= started_at)
		)
	`)
	return err
}

func (r *MigrationRunner) createTasksTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category_id UUID REFERENCES activity_categories(id) ON DELETE SET NULL,
			creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			assignee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			due_date TIMESTAMP WITH TIME ZONE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			review_note TEXT NOT NULL DEFAULT '',
			submitted_at TIMESTAMP WITH TIME ZONE,
			reviewed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_categories_parent_id ON activity_categories(parent_id)",
		"CREATE INDEX IF NOT EXISTS idx_categories_department_id ON activity_categories(department_id)",
		"CREATE INDEX IF NOT EXISTS idx_categories_code ON activity_categories(code)",

		"CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_activities_user_status ON activities(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_activities_category_id ON activities(category_id)",
		"CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_sessions_activity_id ON activity_sessions(activity_id)",
		// Lookup path for "find the open session of this activity"
		"CREATE INDEX IF NOT EXISTS idx_sessions_activity_open ON activity_sessions(activity_id) WHERE ended_at IS NULL",

		"CREATE INDEX IF NOT EXISTS idx_role_categories_category ON work_role_categories(category_id)",

		"CREATE INDEX IF NOT EXISTS idx_tasks_assignee_status ON tasks(assignee_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_creator_id ON tasks(creator_id)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}

func (r *MigrationRunner) insertSeedRows(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, is_admin, is_active)
		VALUES ('550e8400-e29b-41d4-a716-446655440000', 'admin@worklog.local', 'admin', true, true)
		ON CONFLICT (email) DO NOTHING
	`)
	if err != nil {
		fmt.Printf("Warning: failed to insert default admin user: %v\n", err)
	}

	// GEN is the fallback department used when code generation cannot
	// resolve a real one.
	_, err = db.ExecContext(ctx, `
		INSERT INTO departments (id, name, code)
		VALUES ('550e8400-e29b-41d4-a716-446655440002', 'General', 'GEN')
		ON CONFLICT (code) DO NOTHING
	`)
	if err != nil {
		fmt.Printf("Warning: failed to insert default department: %v\n", err)
	}

	return nil
}
