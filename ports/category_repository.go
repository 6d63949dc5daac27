package ports

import (
	"context"

	"worklog/models"

	"github.com/google/uuid"
)

// CategoryRepository defines data operations for hierarchical activity categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.ActivityCategory) error
	Update(ctx context.Context, category *models.ActivityCategory) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityCategory, error)
	GetByCode(ctx context.Context, code string) (*models.ActivityCategory, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)

	// CountChildren returns the number of direct children of the parent.
	CountChildren(ctx context.Context, parentID uuid.UUID) (int, error)

	// CountTopLevel returns the number of root categories in the department;
	// a nil departmentID counts roots with no department.
	CountTopLevel(ctx context.Context, departmentID *uuid.UUID) (int, error)

	List(ctx context.Context) ([]*models.ActivityCategory, error)
}

// DepartmentRepository defines data operations for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	GetByName(ctx context.Context, name string) (*models.Department, error)
	List(ctx context.Context) ([]*models.Department, error)
}

// WorkRoleRepository defines data operations for work roles and their
// category assignments.
type WorkRoleRepository interface {
	Create(ctx context.Context, role *models.WorkRole) error
	GetByName(ctx context.Context, name string) (*models.WorkRole, error)
	List(ctx context.Context) ([]*models.WorkRole, error)

	// AssignCategory links a category to a role; assigning twice is a no-op.
	AssignCategory(ctx context.Context, roleID, categoryID uuid.UUID) error

	// UserHasCategory reports whether any of the user's work roles carries
	// the category assignment.
	UserHasCategory(ctx context.Context, userID, categoryID uuid.UUID) (bool, error)
}
