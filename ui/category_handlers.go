package ui

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"worklog/app"
	"worklog/models"
	"worklog/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/google/uuid"
)

// categoryView is a category plus its descriptive fields rendered from
// Markdown to HTML for display.
type categoryView struct {
	*models.ActivityCategory
	DefinitionHTML        string `json:"definition_html,omitempty"`
	ReferenceProtocolHTML string `json:"reference_protocol_html,omitempty"`
	ObjectiveHTML         string `json:"objective_html,omitempty"`
}

func renderCategory(category *models.ActivityCategory) categoryView {
	view := categoryView{ActivityCategory: category}
	if category.Definition != "" {
		view.DefinitionHTML = string(markdown.ToHTML([]byte(category.Definition), nil, nil))
	}
	if category.ReferenceProtocol != "" {
		view.ReferenceProtocolHTML = string(markdown.ToHTML([]byte(category.ReferenceProtocol), nil, nil))
	}
	if category.Objective != "" {
		view.ObjectiveHTML = string(markdown.ToHTML([]byte(category.Objective), nil, nil))
	}
	return view
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.categories.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var input app.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := s.categories.Create(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) handleCategoryDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := s.categories.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderCategory(category))
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input app.UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := s.categories.Update(c.Request.Context(), middleware.Actor(c), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// handleImportCategories accepts an uploaded spreadsheet and applies it row
// by row. Row failures are reported in the response, not as a request error.
func (s *Server) handleImportCategories(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".xlsx" && ext != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx and .csv files are accepted"})
		return
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("category-import-%s%s", uuid.New(), ext))
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(tmp)

	result, err := s.importer.ImportFile(c.Request.Context(), middleware.Actor(c), tmp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExportCategories(c *gin.Context) {
	ctx := c.Request.Context()
	categories, err := s.categories.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	departments, err := s.categories.ListDepartments(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	workbook, err := s.exporter.CategoriesWorkbook(categories, departments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="categories.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		writeError(c, err)
	}
}

func (s *Server) handleListDepartments(c *gin.Context) {
	departments, err := s.categories.ListDepartments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

func (s *Server) handleCreateDepartment(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	department, err := s.categories.CreateDepartment(c.Request.Context(), middleware.Actor(c), input.Name, input.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, department)
}

func (s *Server) handleListWorkRoles(c *gin.Context) {
	roles, err := s.categories.ListWorkRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_roles": roles})
}

func (s *Server) handleCreateWorkRole(c *gin.Context) {
	var input struct {
		Name         string     `json:"name" binding:"required"`
		DepartmentID *uuid.UUID `json:"department_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := s.categories.CreateWorkRole(c.Request.Context(), middleware.Actor(c), input.Name, input.DepartmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (s *Server) handleAssignCategory(c *gin.Context) {
	var input struct {
		Role         string `json:"role" binding:"required"`
		CategoryCode string `json:"category_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.categories.AssignCategoryToRole(c.Request.Context(), middleware.Actor(c), input.Role, input.CategoryCode); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}
