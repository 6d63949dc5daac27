package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const categoryColumns = `id, parent_id, department_id, code, name, standard_time, definition, reference_protocol, objective, created_at, updated_at`

// CategoryRepositoryImpl implements CategoryRepository for PostgreSQL
type CategoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(db *sqlx.DB) ports.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

// Create inserts a new category. A duplicate code surfaces as a DUPLICATE
// AppError so the caller can retry with a fresh code.
func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *models.ActivityCategory) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO activity_categories (id, parent_id, department_id, code, name, standard_time, definition, reference_protocol, objective, created_at, updated_at)
		VALUES (:id, :parent_id, :department_id, :code, :name, :standard_time, :definition, :reference_protocol, :objective, NOW(), NOW())
	`, category)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return apperrors.Duplicate(fmt.Sprintf("category code %s already exists", category.Code))
		}
		return err
	}
	return nil
}

// Update persists the mutable fields of a category. Code is immutable.
func (r *CategoryRepositoryImpl) Update(ctx context.Context, category *models.ActivityCategory) error {
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		UPDATE activity_categories
		SET parent_id = :parent_id,
		    department_id = :department_id,
		    name = :name,
		    standard_time = :standard_time,
		    definition = :definition,
		    reference_protocol = :reference_protocol,
		    objective = :objective,
		    updated_at = NOW()
		WHERE id = :id
	`, category)
	return err
}

// GetByID retrieves a category by ID
func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityCategory, error) {
	var category models.ActivityCategory
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &category, `
		SELECT `+categoryColumns+`
		FROM activity_categories
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("category")
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByCode retrieves a category by its unique code
func (r *CategoryRepositoryImpl) GetByCode(ctx context.Context, code string) (*models.ActivityCategory, error) {
	var category models.ActivityCategory
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &category, `
		SELECT `+categoryColumns+`
		FROM activity_categories
		WHERE code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("category")
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByCode reports whether a category with the code exists
func (r *CategoryRepositoryImpl) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists, `
		SELECT EXISTS (SELECT 1 FROM activity_categories WHERE code = $1)
	`, code)
	return exists, err
}

// CountChildren returns the number of direct children of the parent
func (r *CategoryRepositoryImpl) CountChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &count, `
		SELECT COUNT(*) FROM activity_categories WHERE parent_id = $1
	`, parentID)
	return count, err
}

// CountTopLevel returns the number of root categories in the department
func (r *CategoryRepositoryImpl) CountTopLevel(ctx context.Context, departmentID *uuid.UUID) (int, error) {
	var count int
	var err error
	if departmentID == nil {
		err = sqlx.GetContext(ctx, ext(ctx, r.db), &count, `
			SELECT COUNT(*) FROM activity_categories WHERE parent_id IS NULL AND department_id IS NULL
		`)
	} else {
		err = sqlx.GetContext(ctx, ext(ctx, r.db), &count, `
			SELECT COUNT(*) FROM activity_categories WHERE parent_id IS NULL AND department_id = $1
		`, *departmentID)
	}
	return count, err
}

// List returns all categories ordered by code
func (r *CategoryRepositoryImpl) List(ctx context.Context) ([]*models.ActivityCategory, error) {
	var categories []*models.ActivityCategory
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &categories, `
		SELECT `+categoryColumns+`
		FROM activity_categories
		ORDER BY code
	`)
	return categories, err
}

// DepartmentRepositoryImpl implements DepartmentRepository for PostgreSQL
type DepartmentRepositoryImpl struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new PostgreSQL department repository
func NewDepartmentRepository(db *sqlx.DB) ports.DepartmentRepository {
	return &DepartmentRepositoryImpl{db: db}
}

// Create inserts a new department
func (r *DepartmentRepositoryImpl) Create(ctx context.Context, department *models.Department) error {
	if department.ID == uuid.Nil {
		department.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO departments (id, name, code, created_at, updated_at)
		VALUES (:id, :name, :code, NOW(), NOW())
	`, department)
	return err
}

// GetByID retrieves a department by ID
func (r *DepartmentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var department models.Department
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &department, `
		SELECT id, name, code, created_at, updated_at FROM departments WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("department")
	}
	if err != nil {
		return nil, err
	}
	return &department, nil
}

// GetByName retrieves a department by name
func (r *DepartmentRepositoryImpl) GetByName(ctx context.Context, name string) (*models.Department, error) {
	var department models.Department
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &department, `
		SELECT id, name, code, created_at, updated_at FROM departments WHERE name = $1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("department")
	}
	if err != nil {
		return nil, err
	}
	return &department, nil
}

// List returns all departments ordered by code
func (r *DepartmentRepositoryImpl) List(ctx context.Context) ([]*models.Department, error) {
	var departments []*models.Department
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &departments, `
		SELECT id, name, code, created_at, updated_at FROM departments ORDER BY code
	`)
	return departments, err
}

// WorkRoleRepositoryImpl implements WorkRoleRepository for PostgreSQL
type WorkRoleRepositoryImpl struct {
	db *sqlx.DB
}

// NewWorkRoleRepository creates a new PostgreSQL work role repository
func NewWorkRoleRepository(db *sqlx.DB) ports.WorkRoleRepository {
	return &WorkRoleRepositoryImpl{db: db}
}

// Create inserts a new work role
func (r *WorkRoleRepositoryImpl) Create(ctx context.Context, role *models.WorkRole) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), `
		INSERT INTO work_roles (id, name, department_id, created_at, updated_at)
		VALUES (:id, :name, :department_id, NOW(), NOW())
	`, role)
	return err
}

// GetByName retrieves a work role by name
func (r *WorkRoleRepositoryImpl) GetByName(ctx context.Context, name string) (*models.WorkRole, error) {
	var role models.WorkRole
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &role, `
		SELECT id, name, department_id, created_at, updated_at FROM work_roles WHERE name = $1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("work role")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all work roles ordered by name
func (r *WorkRoleRepositoryImpl) List(ctx context.Context) ([]*models.WorkRole, error) {
	var roles []*models.WorkRole
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &roles, `
		SELECT id, name, department_id, created_at, updated_at FROM work_roles ORDER BY name
	`)
	return roles, err
}

// AssignCategory links a category to a role; assigning twice is a no-op
func (r *WorkRoleRepositoryImpl) AssignCategory(ctx context.Context, roleID, categoryID uuid.UUID) error {
	_, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO work_role_categories (work_role_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roleID, categoryID)
	return err
}

// UserHasCategory reports whether any of the user's work roles carries the
// category assignment
func (r *WorkRoleRepositoryImpl) UserHasCategory(ctx context.Context, userID, categoryID uuid.UUID) (bool, error) {
	var allowed bool
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &allowed, `
		SELECT EXISTS (
			SELECT 1
			FROM user_work_roles uwr
			JOIN work_role_categories wrc ON wrc.work_role_id = uwr.work_role_id
			WHERE uwr.user_id = $1 AND wrc.category_id = $2
		)
	`, userID, categoryID)
	return allowed, err
}
