package ui

import (
	"errors"
	"fmt"
	"net/http"

	"worklog/adapters/excel"
	"worklog/app"
	apperrors "worklog/internal/errors"
	"worklog/ports"
	"worklog/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server is the JSON API server for the activity tracker.
type Server struct {
	router *gin.Engine

	users      ports.UserRepository
	activities *app.ActivityService
	categories *app.CategoryService
	tasks      *app.TaskService
	reports    *app.ReportService
	importer   *excel.Importer
	exporter   *excel.Exporter
}

// NewServer creates the web server and wires its routes
func NewServer(
	users ports.UserRepository,
	activities *app.ActivityService,
	categories *app.CategoryService,
	tasks *app.TaskService,
	reports *app.ReportService,
	importer *excel.Importer,
	exporter *excel.Exporter,
) *Server {
	s := &Server{
		router:     gin.Default(),
		users:      users,
		activities: activities,
		categories: categories,
		tasks:      tasks,
		reports:    reports,
		importer:   importer,
		exporter:   exporter,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.Use(middleware.ResolveActor(s.users))

	api.GET("/me", s.handleCurrentUser)
	api.GET("/users", s.handleListUsers)
	api.POST("/users", s.handleCreateUser)

	api.POST("/activities", s.handleCreateActivity)
	api.GET("/activities", s.handleListActivities)
	api.GET("/activities/:id", s.handleActivityDetail)
	api.POST("/activities/:id/start", s.handleStartActivity)
	api.POST("/activities/:id/start-exclusive", s.handleStartExclusive)
	api.POST("/activities/:id/pause", s.handlePauseActivity)
	api.POST("/activities/:id/complete", s.handleCompleteActivity)

	api.GET("/categories", s.handleListCategories)
	api.POST("/categories", s.handleCreateCategory)
	api.GET("/categories/:id", s.handleCategoryDetail)
	api.PUT("/categories/:id", s.handleUpdateCategory)
	api.POST("/categories/import", s.handleImportCategories)
	api.GET("/categories/export", s.handleExportCategories)

	api.GET("/departments", s.handleListDepartments)
	api.POST("/departments", s.handleCreateDepartment)
	api.GET("/work-roles", s.handleListWorkRoles)
	api.POST("/work-roles", s.handleCreateWorkRole)
	api.POST("/work-roles/assign", s.handleAssignCategory)

	api.POST("/tasks", s.handleCreateTask)
	api.GET("/tasks/assigned", s.handleAssignedTasks)
	api.GET("/tasks/created", s.handleCreatedTasks)
	api.GET("/tasks/:id", s.handleTaskDetail)
	api.POST("/tasks/:id/begin", s.handleBeginTask)
	api.POST("/tasks/:id/submit", s.handleSubmitTask)
	api.POST("/tasks/:id/approve", s.handleApproveTask)
	api.POST("/tasks/:id/reject", s.handleRejectTask)

	api.GET("/reports/categories", s.handleCategoryReports)
	api.GET("/reports/categories/export", s.handleExportCategoryReports)
}

// Run starts the HTTP server on the given port
func (s *Server) Run(port string) error {
	return s.router.Run(":" + port)
}

// Router exposes the underlying engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// pathID parses the :id route parameter as a UUID.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id %q", c.Param("id"))})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps application error codes onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeNotFound:
			status = http.StatusNotFound
		case apperrors.CodeUnauthorized:
			status = http.StatusForbidden
		case apperrors.CodeInvalidInput, apperrors.CodeValidationError:
			status = http.StatusBadRequest
		case apperrors.CodePreconditionFailed, apperrors.CodeDuplicate:
			status = http.StatusConflict
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
