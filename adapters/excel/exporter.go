package excel

import (
	"fmt"

	"worklog/app"
	"worklog/models"

	"github.com/xuri/excelize/v2"
)

// Exporter builds spreadsheet workbooks for download endpoints.
type Exporter struct{}

// NewExporter creates a spreadsheet exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// CategoriesWorkbook renders the category catalog, one row per category, in
// the same column layout the importer accepts.
func (e *Exporter) CategoriesWorkbook(categories []*models.ActivityCategory, departments []*models.Department) (*excelize.File, error) {
	deptNames := make(map[string]string, len(departments))
	for _, d := range departments {
		deptNames[d.ID.String()] = d.Name
	}
	codesByID := make(map[string]string, len(categories))
	for _, c := range categories {
		codesByID[c.ID.String()] = c.Code
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"code", "name", "parent_code", "department", "standard_time", "definition", "reference_protocol", "objective"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for rowIdx, c := range categories {
		parentCode := ""
		if c.ParentID != nil {
			parentCode = codesByID[c.ParentID.String()]
		}
		deptName := ""
		if c.DepartmentID != nil {
			deptName = deptNames[c.DepartmentID.String()]
		}
		var standardTime interface{}
		if c.StandardTime != nil {
			standardTime = *c.StandardTime
		}

		values := []interface{}{c.Code, c.Name, parentCode, deptName, standardTime, c.Definition, c.ReferenceProtocol, c.Objective}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "F", "H", 40); err != nil {
		return nil, err
	}
	return f, nil
}

// ReportWorkbook renders per-category duration summaries.
func (e *Exporter) ReportWorkbook(reports []*app.CategoryReport) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"code", "name", "sessions", "total_minutes", "total", "mean_minutes", "median_minutes", "p90_minutes", "stddev_minutes", "consistency_score"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for rowIdx, r := range reports {
		var score interface{}
		if r.ConsistencyScore != nil {
			score = fmt.Sprintf("%.3f", *r.ConsistencyScore)
		}
		values := []interface{}{r.Code, r.Name, r.SessionCount, r.TotalMinutes, r.TotalDisplay, r.MeanMinutes, r.Median, r.P90, r.StdDev, score}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return nil, err
	}
	return f, nil
}
