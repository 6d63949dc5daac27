package excel

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"worklog/app"
	"worklog/models"
	"worklog/ports"
)

// Spreadsheet columns recognized by the importer. Only name is mandatory.
const (
	colAction            = "action"
	colName              = "name"
	colCode              = "code"
	colParentCode        = "parent_code"
	colDepartment        = "department"
	colWorkRoles         = "work_roles"
	colStandardTime      = "standard_time"
	colDefinition        = "definition"
	colReferenceProtocol = "reference_protocol"
	colObjective         = "objective"
)

// RowError records why one spreadsheet row was skipped. Row numbers are
// 1-based and include the header row, matching what the user sees in Excel.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk category import.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

// Importer loads categories from a spreadsheet. Rows are independent: a bad
// row is recorded and skipped, the rest of the file still imports.
type Importer struct {
	service     *app.CategoryService
	departments ports.DepartmentRepository
}

// NewImporter creates a category spreadsheet importer
func NewImporter(service *app.CategoryService, departments ports.DepartmentRepository) *Importer {
	return &Importer{service: service, departments: departments}
}

// ImportFile reads the spreadsheet at filePath and applies each row on behalf
// of the actor.
func (i *Importer) ImportFile(ctx context.Context, actor *models.User, filePath string) (*ImportResult, error) {
	sheet, err := NewReader(filePath).Read()
	if err != nil {
		return nil, err
	}
	return i.Apply(ctx, actor, sheet)
}

// Apply walks the parsed sheet row by row, creating or updating categories.
func (i *Importer) Apply(ctx context.Context, actor *models.User, sheet *Sheet) (*ImportResult, error) {
	result := &ImportResult{}

	for idx, row := range sheet.Rows {
		// Row 1 is the header, so data row 0 is spreadsheet row 2.
		rowNum := idx + 2
		if err := i.applyRow(ctx, actor, row, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
		}
	}

	log.Printf("[Importer] Import finished: %d created, %d updated, %d skipped",
		result.Created, result.Updated, result.Skipped)
	return result, nil
}

func (i *Importer) applyRow(ctx context.Context, actor *models.User, row Row, result *ImportResult) error {
	action := strings.ToUpper(row[colAction])
	if action == "" {
		action = "CREATE"
	}

	switch action {
	case "CREATE":
		if err := i.createRow(ctx, actor, row); err != nil {
			return err
		}
		result.Created++
		return nil
	case "UPDATE":
		if err := i.updateRow(ctx, actor, row); err != nil {
			return err
		}
		result.Updated++
		return nil
	default:
		return fmt.Errorf("unknown action %q", row[colAction])
	}
}

func (i *Importer) createRow(ctx context.Context, actor *models.User, row Row) error {
	input := app.CreateCategoryInput{
		Name:              row[colName],
		Code:              row[colCode],
		ParentCode:        row[colParentCode],
		Definition:        row[colDefinition],
		ReferenceProtocol: row[colReferenceProtocol],
		Objective:         row[colObjective],
	}

	if deptName := row[colDepartment]; deptName != "" {
		dept, err := i.departments.GetByName(ctx, deptName)
		if err != nil {
			return fmt.Errorf("department %q: %w", deptName, err)
		}
		input.DepartmentID = &dept.ID
	}

	standardTime, err := parseStandardTime(row[colStandardTime])
	if err != nil {
		return err
	}
	input.StandardTime = standardTime

	category, err := i.service.Create(ctx, actor, input)
	if err != nil {
		return err
	}

	return i.assignRoles(ctx, actor, category.Code, row[colWorkRoles])
}

func (i *Importer) updateRow(ctx context.Context, actor *models.User, row Row) error {
	code := row[colCode]
	if code == "" {
		return fmt.Errorf("UPDATE rows require a code")
	}
	existing, err := i.service.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("category %q: %w", code, err)
	}

	// Start from the stored record so blank cells leave fields untouched.
	input := app.UpdateCategoryInput{
		Name:              existing.Name,
		ParentID:          existing.ParentID,
		DepartmentID:      existing.DepartmentID,
		StandardTime:      existing.StandardTime,
		Definition:        existing.Definition,
		ReferenceProtocol: existing.ReferenceProtocol,
		Objective:         existing.Objective,
	}

	if name := row[colName]; name != "" {
		input.Name = name
	}
	if parentCode := row[colParentCode]; parentCode != "" {
		parent, err := i.service.GetByCode(ctx, parentCode)
		if err != nil {
			return fmt.Errorf("parent %q: %w", parentCode, err)
		}
		input.ParentID = &parent.ID
	}
	if deptName := row[colDepartment]; deptName != "" {
		dept, err := i.departments.GetByName(ctx, deptName)
		if err != nil {
			return fmt.Errorf("department %q: %w", deptName, err)
		}
		input.DepartmentID = &dept.ID
	}
	if raw := row[colStandardTime]; raw != "" {
		standardTime, err := parseStandardTime(raw)
		if err != nil {
			return err
		}
		input.StandardTime = standardTime
	}
	if v := row[colDefinition]; v != "" {
		input.Definition = v
	}
	if v := row[colReferenceProtocol]; v != "" {
		input.ReferenceProtocol = v
	}
	if v := row[colObjective]; v != "" {
		input.Objective = v
	}

	if _, err := i.service.Update(ctx, actor, existing.ID, input); err != nil {
		return err
	}

	return i.assignRoles(ctx, actor, code, row[colWorkRoles])
}

// assignRoles links the category to each role in a semicolon-separated list.
func (i *Importer) assignRoles(ctx context.Context, actor *models.User, categoryCode, roleList string) error {
	for _, roleName := range strings.Split(roleList, ";") {
		roleName = strings.TrimSpace(roleName)
		if roleName == "" {
			continue
		}
		if err := i.service.AssignCategoryToRole(ctx, actor, roleName, categoryCode); err != nil {
			return fmt.Errorf("assigning role %q: %w", roleName, err)
		}
	}
	return nil
}

func parseStandardTime(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid standard_time %q", raw)
	}
	return &v, nil
}
