package excel

import (
	"context"
	"testing"

	"worklog/app"
	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importFixture struct {
	categories  *testkit.CategoryRepo
	departments *testkit.DepartmentRepo
	roles       *testkit.WorkRoleRepo
	importer    *Importer
	admin       *models.User
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	categories := testkit.NewCategoryRepo()
	departments := testkit.NewDepartmentRepo()
	roles := testkit.NewWorkRoleRepo()
	gen := app.NewCodeGenerator(categories, departments, testkit.NewClock())
	service := app.NewCategoryService(categories, departments, roles, gen)

	require.NoError(t, departments.Create(context.Background(), &models.Department{
		ID: uuid.New(), Name: "Quality", Code: "QA",
	}))
	require.NoError(t, roles.Create(context.Background(), &models.WorkRole{
		ID: uuid.New(), Name: "Technician",
	}))

	return &importFixture{
		categories:  categories,
		departments: departments,
		roles:       roles,
		importer:    NewImporter(service, departments),
		admin:       &models.User{ID: uuid.New(), Username: "admin", IsAdmin: true},
	}
}

func TestImportCreatesCategories(t *testing.T) {
	f := newImportFixture(t)
	sheet := &Sheet{
		Headers: []string{colName, colDepartment, colStandardTime, colWorkRoles},
		Rows: []Row{
			{colName: "Calibration", colDepartment: "Quality", colStandardTime: "45.5", colWorkRoles: "Technician"},
			{colName: "Internal Audit", colDepartment: "Quality"},
		},
	}

	result, err := f.importer.Apply(context.Background(), f.admin, sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	category, err := f.categories.GetByCode(context.Background(), "QA_CAL")
	require.NoError(t, err)
	require.NotNil(t, category.StandardTime)
	assert.InDelta(t, 45.5, *category.StandardTime, 1e-9)

	role, err := f.roles.GetByName(context.Background(), "Technician")
	require.NoError(t, err)
	f.roles.AddMember(f.admin.ID, role.ID)
	allowed, err := f.roles.UserHasCategory(context.Background(), f.admin.ID, category.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestImportUpdatesByCode(t *testing.T) {
	f := newImportFixture(t)
	create := &Sheet{
		Headers: []string{colName, colCode, colDefinition},
		Rows:    []Row{{colName: "Calibration", colCode: "QA_CAL", colDefinition: "original"}},
	}
	_, err := f.importer.Apply(context.Background(), f.admin, create)
	require.NoError(t, err)

	update := &Sheet{
		Headers: []string{colAction, colCode, colStandardTime},
		Rows:    []Row{{colAction: "UPDATE", colCode: "QA_CAL", colStandardTime: "30"}},
	}
	result, err := f.importer.Apply(context.Background(), f.admin, update)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	category, err := f.categories.GetByCode(context.Background(), "QA_CAL")
	require.NoError(t, err)
	require.NotNil(t, category.StandardTime)
	assert.InDelta(t, 30.0, *category.StandardTime, 1e-9)
	// Blank cells leave fields untouched.
	assert.Equal(t, "original", category.Definition)
}

func TestImportCollectsRowErrorsAndContinues(t *testing.T) {
	f := newImportFixture(t)
	sheet := &Sheet{
		Headers: []string{colAction, colName, colCode, colDepartment, colStandardTime},
		Rows: []Row{
			{colName: "Calibration"},
			{colName: "Bad Department", colDepartment: "Nonexistent"},
			{colName: "Bad Number", colStandardTime: "soon"},
			{colAction: "UPDATE", colName: "No Code"},
			{colAction: "ARCHIVE", colName: "Bad Action"},
		},
	}

	result, err := f.importer.Apply(context.Background(), f.admin, sheet)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Errors, 4)
	// Row numbers match the spreadsheet, header included.
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 6, result.Errors[3].Row)
}
