package container

import (
	"context"
	"fmt"
	"log"

	"worklog/adapters/excel"
	"worklog/adapters/postgres"
	"worklog/app"
	"worklog/domain/timing"
	"worklog/internal/config"
	"worklog/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	UserRepo       ports.UserRepository
	ActivityRepo   ports.ActivityRepository
	SessionRepo    ports.SessionRepository
	CategoryRepo   ports.CategoryRepository
	DepartmentRepo ports.DepartmentRepository
	WorkRoleRepo   ports.WorkRoleRepository
	TaskRepo       ports.TaskRepository
	Transactor     ports.Transactor

	// Services
	CodeGenerator   *app.CodeGenerator
	ActivityService *app.ActivityService
	CategoryService *app.CategoryService
	TaskService     *app.TaskService
	ReportService   *app.ReportService

	// Spreadsheet adapters
	Importer *excel.Importer
	Exporter *excel.Exporter
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	c.UserRepo = postgres.NewUserRepository(db)
	c.ActivityRepo = postgres.NewActivityRepository(db)
	c.SessionRepo = postgres.NewSessionRepository(db)
	c.CategoryRepo = postgres.NewCategoryRepository(db)
	c.DepartmentRepo = postgres.NewDepartmentRepository(db)
	c.WorkRoleRepo = postgres.NewWorkRoleRepository(db)
	c.TaskRepo = postgres.NewTaskRepository(db)
	c.Transactor = postgres.NewTransactor(db)

	clock := timing.System{}
	c.CodeGenerator = app.NewCodeGenerator(c.CategoryRepo, c.DepartmentRepo, clock)
	c.ActivityService = app.NewActivityService(c.ActivityRepo, c.SessionRepo, c.CategoryRepo, c.WorkRoleRepo, c.Transactor, clock)
	c.CategoryService = app.NewCategoryService(c.CategoryRepo, c.DepartmentRepo, c.WorkRoleRepo, c.CodeGenerator)
	c.TaskService = app.NewTaskService(c.TaskRepo, c.UserRepo, c.CategoryRepo, clock)
	c.ReportService = app.NewReportService(c.CategoryRepo, c.SessionRepo)

	c.Importer = excel.NewImporter(c.CategoryService, c.DepartmentRepo)
	c.Exporter = excel.NewExporter()

	// The default admin exists before the first request so header-less API
	// calls and imports have an actor.
	admin, err := c.UserRepo.GetOrCreateDefaultUser(context.Background())
	if err != nil {
		return fmt.Errorf("bootstrapping default user: %w", err)
	}
	log.Printf("[Container] Default admin user ready (%s)", admin.Email)

	return nil
}

// Close releases container resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
