package main

import (
	"context"
	"flag"
	"log"

	"worklog/internal/config"
	"worklog/internal/container"
	"worklog/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	filePath := flag.String("file", "", "path to the category spreadsheet (.xlsx or .csv)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := *filePath
	if path == "" {
		path = appConfig.Data.CategoryFile
	}
	if path == "" {
		log.Fatal("Usage: import -file <spreadsheet> (or set CATEGORY_FILE)")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Close()

	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	admin, err := appContainer.UserRepo.GetOrCreateDefaultUser(ctx)
	if err != nil {
		log.Fatalf("Failed to resolve default admin: %v", err)
	}

	result, err := appContainer.Importer.ImportFile(ctx, admin, path)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete: %d created, %d updated, %d skipped", result.Created, result.Updated, result.Skipped)
	for _, rowErr := range result.Errors {
		log.Printf("Row %d: %s", rowErr.Row, rowErr.Message)
	}
}
