package app

import (
	"context"
	"fmt"
	"testing"

	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorFixture struct {
	categories  *testkit.CategoryRepo
	departments *testkit.DepartmentRepo
	clock       *testkit.Clock
	gen         *CodeGenerator
}

func newGeneratorFixture() *generatorFixture {
	categories := testkit.NewCategoryRepo()
	departments := testkit.NewDepartmentRepo()
	clock := testkit.NewClock()
	return &generatorFixture{
		categories:  categories,
		departments: departments,
		clock:       clock,
		gen:         NewCodeGenerator(categories, departments, clock),
	}
}

func (f *generatorFixture) department(t *testing.T, name, code string) *models.Department {
	t.Helper()
	d := &models.Department{ID: uuid.New(), Name: name, Code: code}
	require.NoError(t, f.departments.Create(context.Background(), d))
	return d
}

func TestGenerateRootCodes(t *testing.T) {
	f := newGeneratorFixture()
	eng := f.department(t, "Engineering", "ENG")

	tests := []struct {
		name         string
		categoryName string
		departmentID *uuid.UUID
		want         string
	}{
		{"specific pattern beats general", "Project Management System Review", &eng.ID, "ENG_PMS"},
		{"quality management system", "Quality Management System Setup", &eng.ID, "ENG_QMS"},
		{"general pattern", "Monthly Equipment Inspection", &eng.ID, "ENG_INSP"},
		{"maintenance stem", "Corrective Maintenance", &eng.ID, "ENG_MAINT"},
		{"initials abbreviation", "Vendor Qualification Assessment", &eng.ID, "ENG_VQA"},
		{"short abbreviation padded", "Welding", &eng.ID, "ENG_WEL"},
		{"stop words skipped, padded from first word", "Handling of the Samples", &eng.ID, "ENG_HSA"},
		{"no department falls back", "Vendor Qualification Assessment", nil, "GEN_VQA"},
		{"empty name", "   ", &eng.ID, "ENG_MISC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category := &models.ActivityCategory{Name: tt.categoryName, DepartmentID: tt.departmentID}
			assert.Equal(t, tt.want, f.gen.Generate(context.Background(), category))
		})
	}
}

func TestGenerateTruncatesDepartmentCode(t *testing.T) {
	f := newGeneratorFixture()
	long := f.department(t, "Engineering", "ENGINEERING")

	category := &models.ActivityCategory{Name: "Welding", DepartmentID: &long.ID}
	assert.Equal(t, "ENG_WEL", f.gen.Generate(context.Background(), category))
}

func TestGenerateChildCodesSequenceUnderParent(t *testing.T) {
	f := newGeneratorFixture()

	parent := &models.ActivityCategory{ID: uuid.New(), Code: "IT_PM", Name: "Preventive Maintenance"}
	require.NoError(t, f.categories.Create(context.Background(), parent))
	for i := 1; i <= 2; i++ {
		child := &models.ActivityCategory{
			ID:       uuid.New(),
			ParentID: &parent.ID,
			Code:     fmt.Sprintf("IT_PM_%03d", i),
			Name:     fmt.Sprintf("Step %d", i),
		}
		require.NoError(t, f.categories.Create(context.Background(), child))
	}

	next := &models.ActivityCategory{ParentID: &parent.ID, Name: "Step 3"}
	assert.Equal(t, "IT_PM_003", f.gen.Generate(context.Background(), next))
}

func TestGenerateFirstChildStartsAtOne(t *testing.T) {
	f := newGeneratorFixture()

	parent := &models.ActivityCategory{ID: uuid.New(), Code: "QA_AUD", Name: "Audits"}
	require.NoError(t, f.categories.Create(context.Background(), parent))

	child := &models.ActivityCategory{ParentID: &parent.ID, Name: "Internal Audit"}
	assert.Equal(t, "QA_AUD_001", f.gen.Generate(context.Background(), child))
}

func TestGenerateSuffixesOnCollision(t *testing.T) {
	f := newGeneratorFixture()

	taken := &models.ActivityCategory{ID: uuid.New(), Code: "GEN_TRN", Name: "Training"}
	require.NoError(t, f.categories.Create(context.Background(), taken))

	first := &models.ActivityCategory{Name: "Operator Training"}
	assert.Equal(t, "GEN_TRN_01", f.gen.Generate(context.Background(), first))

	also := &models.ActivityCategory{ID: uuid.New(), Code: "GEN_TRN_01", Name: "Operator Training"}
	require.NoError(t, f.categories.Create(context.Background(), also))

	second := &models.ActivityCategory{Name: "Forklift Training"}
	assert.Equal(t, "GEN_TRN_02", f.gen.Generate(context.Background(), second))
}

func TestGenerateFallsBackToTimestampWhenSuffixesExhaust(t *testing.T) {
	f := newGeneratorFixture()

	base := &models.ActivityCategory{ID: uuid.New(), Code: "GEN_TRN", Name: "Training"}
	require.NoError(t, f.categories.Create(context.Background(), base))
	for i := 1; i <= maxCollisionSuffix; i++ {
		c := &models.ActivityCategory{
			ID:   uuid.New(),
			Code: fmt.Sprintf("GEN_TRN_%02d", i),
			Name: "Training",
		}
		require.NoError(t, f.categories.Create(context.Background(), c))
	}

	code := f.gen.Generate(context.Background(), &models.ActivityCategory{Name: "Safety Training"})
	assert.Equal(t, fmt.Sprintf("GEN_TRN_%d", f.clock.Now().Unix()), code)
}

func TestGeneratedCodesStayDistinctUnderRepetition(t *testing.T) {
	f := newGeneratorFixture()

	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		category := &models.ActivityCategory{ID: uuid.New(), Name: "Vendor Qualification Assessment"}
		category.Code = f.gen.Generate(context.Background(), category)
		require.NoError(t, f.categories.Create(context.Background(), category))
		require.False(t, seen[category.Code], "code %s generated twice", category.Code)
		seen[category.Code] = true
	}
}
