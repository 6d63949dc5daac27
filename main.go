package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"worklog/adapters/excel"
	"worklog/internal/config"
	"worklog/internal/container"
	"worklog/internal/errors"
	"worklog/internal/migration"
	"worklog/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	db.SetMaxOpenConns(appConfig.Database.MaxOpenConns)
	db.SetMaxIdleConns(appConfig.Database.MaxIdleConns)

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

// importCategories runs a spreadsheet import as the default admin.
func importCategories(c *container.Container, filePath string) (*excel.ImportResult, error) {
	ctx := context.Background()
	admin, err := c.UserRepo.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return nil, err
	}
	return c.Importer.ImportFile(ctx, admin, filePath)
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Close()

	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Seed the category tree from a spreadsheet when one is configured
	if appConfig.Data.CategoryFile != "" {
		log.Printf("Importing categories from %s", appConfig.Data.CategoryFile)
		result, err := importCategories(appContainer, appConfig.Data.CategoryFile)
		if err != nil {
			log.Fatalf("Category import failed: %v", err)
		}
		log.Printf("Category import: %d created, %d updated, %d skipped",
			result.Created, result.Updated, result.Skipped)
		for _, rowErr := range result.Errors {
			log.Printf("Category import row %d: %s", rowErr.Row, rowErr.Message)
		}
	}

	gin.SetMode(appConfig.Server.GinMode)
	server := ui.NewServer(
		appContainer.UserRepo,
		appContainer.ActivityService,
		appContainer.CategoryService,
		appContainer.TaskService,
		appContainer.ReportService,
		appContainer.Importer,
		appContainer.Exporter,
	)

	// Internal operations endpoints live on their own port
	if appConfig.Ops.Enabled {
		opsServer := ui.NewOpsServer(appContainer.UserRepo, appContainer.ActivityService)
		go func() {
			log.Printf("Ops server starting on :%s", appConfig.Ops.Port)
			if err := http.ListenAndServe(":"+appConfig.Ops.Port, opsServer.Handler()); err != nil {
				log.Printf("Ops server failed: %v", err)
			}
		}()
	}

	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting worklog server on port %s", appConfig.Server.Port)
	log.Fatal(server.Run(appConfig.Server.Port))
}
