package app

import (
	"context"
	"testing"

	apperrors "worklog/internal/errors"
	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryFixture struct {
	categories  *testkit.CategoryRepo
	departments *testkit.DepartmentRepo
	roles       *testkit.WorkRoleRepo
	svc         *CategoryService
	admin       *models.User
}

func newCategoryFixture() *categoryFixture {
	categories := testkit.NewCategoryRepo()
	departments := testkit.NewDepartmentRepo()
	roles := testkit.NewWorkRoleRepo()
	gen := NewCodeGenerator(categories, departments, testkit.NewClock())
	return &categoryFixture{
		categories:  categories,
		departments: departments,
		roles:       roles,
		svc:         NewCategoryService(categories, departments, roles, gen),
		admin:       &models.User{ID: uuid.New(), Username: "admin", IsAdmin: true},
	}
}

func TestCategoryCreateIsAdminOnly(t *testing.T) {
	f := newCategoryFixture()
	worker := &models.User{ID: uuid.New(), Username: "worker"}

	_, err := f.svc.Create(context.Background(), worker, CreateCategoryInput{Name: "Welding"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestCategoryCreateGeneratesCodeWhenMissing(t *testing.T) {
	f := newCategoryFixture()

	category, err := f.svc.Create(context.Background(), f.admin, CreateCategoryInput{Name: "Welding"})
	require.NoError(t, err)
	assert.Equal(t, "GEN_WEL", category.Code)

	stored, err := f.categories.GetByCode(context.Background(), "GEN_WEL")
	require.NoError(t, err)
	assert.Equal(t, category.ID, stored.ID)
}

func TestCategoryCreateRejectsSuppliedDuplicateCode(t *testing.T) {
	f := newCategoryFixture()

	_, err := f.svc.Create(context.Background(), f.admin, CreateCategoryInput{Name: "Welding", Code: "ENG_WEL"})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.admin, CreateCategoryInput{Name: "Other", Code: "ENG_WEL"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicate))
}

func TestCategoryCreateInheritsParentDepartment(t *testing.T) {
	f := newCategoryFixture()
	dept := &models.Department{ID: uuid.New(), Name: "Quality", Code: "QA"}
	require.NoError(t, f.departments.Create(context.Background(), dept))

	parent, err := f.svc.Create(context.Background(), f.admin, CreateCategoryInput{
		Name:         "Audits",
		DepartmentID: &dept.ID,
	})
	require.NoError(t, err)

	child, err := f.svc.Create(context.Background(), f.admin, CreateCategoryInput{
		Name:       "Internal Audit",
		ParentCode: parent.Code,
	})
	require.NoError(t, err)
	require.NotNil(t, child.DepartmentID)
	assert.Equal(t, dept.ID, *child.DepartmentID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func TestCategoryCreateRetriesOnCodeRace(t *testing.T) {
	f := newCategoryFixture()
	racing := &duplicateNTimesRepo{CategoryRepo: f.categories, failures: 2}
	gen := NewCodeGenerator(racing, f.departments, testkit.NewClock())
	svc := NewCategoryService(racing, f.departments, f.roles, gen)

	category, err := svc.Create(context.Background(), f.admin, CreateCategoryInput{Name: "Welding"})
	require.NoError(t, err)
	assert.NotEmpty(t, category.Code)
	assert.Equal(t, 0, racing.failures)
}

func TestCategoryCreateRejectsNegativeStandardTime(t *testing.T) {
	f := newCategoryFixture()
	negative := -5.0

	_, err := f.svc.Create(context.Background(), f.admin, CreateCategoryInput{Name: "Welding", StandardTime: &negative})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestCategoryUpdateRejectsCycles(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.admin, CreateCategoryInput{Name: "Alpha"})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, f.admin, CreateCategoryInput{Name: "Bravo", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := f.svc.Create(ctx, f.admin, CreateCategoryInput{Name: "Charlie", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.admin, a.ID, UpdateCategoryInput{Name: "Alpha", ParentID: &c.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = f.svc.Update(ctx, f.admin, a.ID, UpdateCategoryInput{Name: "Alpha", ParentID: &a.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestCategoryUpdateKeepsCodeImmutable(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	category, err := f.svc.Create(ctx, f.admin, CreateCategoryInput{Name: "Welding"})
	require.NoError(t, err)
	originalCode := category.Code

	updated, err := f.svc.Update(ctx, f.admin, category.ID, UpdateCategoryInput{Name: "Arc Welding"})
	require.NoError(t, err)
	assert.Equal(t, originalCode, updated.Code)
	assert.Equal(t, "Arc Welding", updated.Name)
}

func TestAssignCategoryToRole(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	category, err := f.svc.Create(ctx, f.admin, CreateCategoryInput{Name: "Welding"})
	require.NoError(t, err)
	role, err := f.svc.CreateWorkRole(ctx, f.admin, "Technician", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.AssignCategoryToRole(ctx, f.admin, role.Name, category.Code))

	member := uuid.New()
	f.roles.AddMember(member, role.ID)
	allowed, err := f.roles.UserHasCategory(ctx, member, category.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// duplicateNTimesRepo simulates concurrent writers stealing generated codes:
// the first n creates fail with a duplicate error.
type duplicateNTimesRepo struct {
	*testkit.CategoryRepo
	failures int
}

func (r *duplicateNTimesRepo) Create(ctx context.Context, c *models.ActivityCategory) error {
	if r.failures > 0 {
		r.failures--
		return apperrors.Duplicate("category code " + c.Code + " already exists")
	}
	return r.CategoryRepo.Create(ctx, c)
}
