package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
)

// maxHierarchyDepth caps the ancestor walk during cycle checks. A chain this
// deep is treated the same as a cycle and rejected.
const maxHierarchyDepth = 100

// createRetryAttempts bounds the regenerate-and-retry loop around duplicate
// code collisions.
const createRetryAttempts = 3

// CreateCategoryInput carries the fields accepted when creating a category.
// Code is optional; when empty one is generated.
type CreateCategoryInput struct {
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	ParentID          *uuid.UUID `json:"parent_id"`
	ParentCode        string     `json:"parent_code"`
	DepartmentID      *uuid.UUID `json:"department_id"`
	StandardTime      *float64   `json:"standard_time"`
	Definition        string     `json:"definition"`
	ReferenceProtocol string     `json:"reference_protocol"`
	Objective         string     `json:"objective"`
}

// UpdateCategoryInput carries the mutable fields of a category. The code is
// immutable once assigned.
type UpdateCategoryInput struct {
	Name              string     `json:"name"`
	ParentID          *uuid.UUID `json:"parent_id"`
	DepartmentID      *uuid.UUID `json:"department_id"`
	StandardTime      *float64   `json:"standard_time"`
	Definition        string     `json:"definition"`
	ReferenceProtocol string     `json:"reference_protocol"`
	Objective         string     `json:"objective"`
}

// CategoryService manages the category hierarchy, departments and work-role
// category assignments. Structural changes are admin-only.
type CategoryService struct {
	categories  ports.CategoryRepository
	departments ports.DepartmentRepository
	roles       ports.WorkRoleRepository
	generator   *CodeGenerator
}

// NewCategoryService creates a category service
func NewCategoryService(
	categories ports.CategoryRepository,
	departments ports.DepartmentRepository,
	roles ports.WorkRoleRepository,
	generator *CodeGenerator,
) *CategoryService {
	return &CategoryService{
		categories:  categories,
		departments: departments,
		roles:       roles,
		generator:   generator,
	}
}

// Create validates and inserts a new category. When no code is supplied one
// is generated from the hierarchy position and name; a collision with a
// concurrent writer regenerates the code and retries.
func (s *CategoryService) Create(ctx context.Context, actor *models.User, input CreateCategoryInput) (*models.ActivityCategory, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, errors.Unauthorized("only administrators can create categories")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.InvalidInput("category name is required")
	}
	if input.StandardTime != nil && *input.StandardTime < 0 {
		return nil, errors.InvalidInput("standard time cannot be negative")
	}

	parent, err := s.resolveParent(ctx, input.ParentID, input.ParentCode)
	if err != nil {
		return nil, err
	}

	category := &models.ActivityCategory{
		ID:                uuid.New(),
		Name:              name,
		Code:              strings.TrimSpace(input.Code),
		DepartmentID:      input.DepartmentID,
		StandardTime:      input.StandardTime,
		Definition:        input.Definition,
		ReferenceProtocol: input.ReferenceProtocol,
		Objective:         input.Objective,
	}
	if parent != nil {
		category.ParentID = &parent.ID
		// Department is inherited from the parent at creation time only;
		// later moves of the parent do not ripple down.
		if category.DepartmentID == nil {
			category.DepartmentID = parent.DepartmentID
		}
	}
	if category.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *category.DepartmentID); err != nil {
			return nil, errors.Wrap(err, "resolving department")
		}
	}

	supplied := category.Code != ""
	if supplied {
		exists, err := s.categories.ExistsByCode(ctx, category.Code)
		if err != nil {
			return nil, errors.Wrap(err, "checking category code")
		}
		if exists {
			return nil, errors.Duplicate(fmt.Sprintf("category code %s already exists", category.Code))
		}
	} else {
		category.Code = s.generator.Generate(ctx, category)
	}

	for attempt := 1; ; attempt++ {
		err := s.categories.Create(ctx, category)
		if err == nil {
			return category, nil
		}
		if !errors.IsCode(err, errors.CodeDuplicate) || supplied {
			return nil, err
		}
		if attempt >= createRetryAttempts {
			// Generated codes raced with concurrent writers every time;
			// the timestamp suffix cannot collide with them.
			category.Code = s.generator.Fallback(category.Code)
			if err := s.categories.Create(ctx, category); err != nil {
				return nil, err
			}
			return category, nil
		}
		log.Printf("[CategoryService] code %s raced a concurrent create, regenerating (attempt %d)", category.Code, attempt)
		category.Code = s.generator.Generate(ctx, category)
	}
}

// Update applies the mutable fields of a category. Re-parenting is checked
// against the ancestor chain so the hierarchy stays acyclic.
func (s *CategoryService) Update(ctx context.Context, actor *models.User, id uuid.UUID, input UpdateCategoryInput) (*models.ActivityCategory, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, errors.Unauthorized("only administrators can update categories")
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.InvalidInput("category name is required")
	}
	if input.StandardTime != nil && *input.StandardTime < 0 {
		return nil, errors.InvalidInput("standard time cannot be negative")
	}

	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, errors.InvalidInput("category cannot be its own parent")
		}
		if _, err := s.categories.GetByID(ctx, *input.ParentID); err != nil {
			return nil, errors.Wrap(err, "resolving parent category")
		}
		cycle, err := s.wouldCreateCycle(ctx, id, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, errors.InvalidInput("re-parenting would create a cycle in the category hierarchy")
		}
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return nil, errors.Wrap(err, "resolving department")
		}
	}

	category.Name = name
	category.ParentID = input.ParentID
	category.DepartmentID = input.DepartmentID
	category.StandardTime = input.StandardTime
	category.Definition = input.Definition
	category.ReferenceProtocol = input.ReferenceProtocol
	category.Objective = input.Objective

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Get retrieves a category by ID
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.ActivityCategory, error) {
	return s.categories.GetByID(ctx, id)
}

// GetByCode retrieves a category by its code
func (s *CategoryService) GetByCode(ctx context.Context, code string) (*models.ActivityCategory, error) {
	return s.categories.GetByCode(ctx, code)
}

// List returns all categories ordered by code
func (s *CategoryService) List(ctx context.Context) ([]*models.ActivityCategory, error) {
	return s.categories.List(ctx)
}

// ListDepartments returns all departments
func (s *CategoryService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departments.List(ctx)
}

// CreateDepartment inserts a new department. Admin only.
func (s *CategoryService) CreateDepartment(ctx context.Context, actor *models.User, name, code string) (*models.Department, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, errors.Unauthorized("only administrators can create departments")
	}
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))
	if name == "" || code == "" {
		return nil, errors.InvalidInput("department name and code are required")
	}
	department := &models.Department{ID: uuid.New(), Name: name, Code: code}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// ListWorkRoles returns all work roles
func (s *CategoryService) ListWorkRoles(ctx context.Context) ([]*models.WorkRole, error) {
	return s.roles.List(ctx)
}

// CreateWorkRole inserts a new work role. Admin only.
func (s *CategoryService) CreateWorkRole(ctx context.Context, actor *models.User, name string, departmentID *uuid.UUID) (*models.WorkRole, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, errors.Unauthorized("only administrators can create work roles")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.InvalidInput("work role name is required")
	}
	if departmentID != nil {
		if _, err := s.departments.GetByID(ctx, *departmentID); err != nil {
			return nil, errors.Wrap(err, "resolving department")
		}
	}
	role := &models.WorkRole{ID: uuid.New(), Name: name, DepartmentID: departmentID}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// AssignCategoryToRole grants a work role access to a category. Admin only.
func (s *CategoryService) AssignCategoryToRole(ctx context.Context, actor *models.User, roleName string, categoryCode string) error {
	if actor == nil || !actor.IsAdmin {
		return errors.Unauthorized("only administrators can assign categories to work roles")
	}
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return errors.Wrap(err, "resolving work role")
	}
	category, err := s.categories.GetByCode(ctx, categoryCode)
	if err != nil {
		return errors.Wrap(err, "resolving category")
	}
	return s.roles.AssignCategory(ctx, role.ID, category.ID)
}

func (s *CategoryService) resolveParent(ctx context.Context, parentID *uuid.UUID, parentCode string) (*models.ActivityCategory, error) {
	if parentID != nil {
		parent, err := s.categories.GetByID(ctx, *parentID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving parent category")
		}
		return parent, nil
	}
	if code := strings.TrimSpace(parentCode); code != "" {
		parent, err := s.categories.GetByCode(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "resolving parent category")
		}
		return parent, nil
	}
	return nil, nil
}

// wouldCreateCycle walks up from the proposed parent; finding the category
// among its ancestors means the move would close a loop. Hitting the depth
// cap is treated as a cycle as well.
func (s *CategoryService) wouldCreateCycle(ctx context.Context, categoryID, newParentID uuid.UUID) (bool, error) {
	current := newParentID
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if current == categoryID {
			return true, nil
		}
		node, err := s.categories.GetByID(ctx, current)
		if err != nil {
			return false, errors.Wrap(err, "walking category ancestors")
		}
		if node.ParentID == nil {
			return false, nil
		}
		current = *node.ParentID
	}
	return true, nil
}
