package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fadedpez/inkwell/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	migrationsDir := createCmd.String("dir", "migrations", "Directory to store migrations")

	dbPath := migrateCmd.String("db", "data/inkwell.db", "Path to SQLite database")
	migrateDir := migrateCmd.String("dir", "migrations", "Directory containing migrations")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		description := createCmd.Arg(0)
		createNewMigration(*migrationsDir, description)

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		applyMigrations(*dbPath, *migrateDir)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run cmd/migration/main.go create DESCRIPTION  - Create a new migration")
	fmt.Println("  go run cmd/migration/main.go migrate            - Apply pending migrations")
	fmt.Println("  go run cmd/migration/main.go help              - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  go run cmd/migration/main.go create \"add badge tables\"")
	fmt.Println("  go run cmd/migration/main.go migrate -db data/inkwell.db")
}

func createNewMigration(migrationsDir, description string) {
	// The migrator only needs a connection for MigrateUp; use an
	// in-memory database when just creating files.
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db, migrationsDir)

	filePath, err := migrator.CreateMigration(description)
	if err != nil {
		log.Fatalf("Error creating migration: %v", err)
	}

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Edit this file to add your database schema changes.")
}

func applyMigrations(dbPath, migrationsDir string) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db, migrationsDir)

	if err := migrator.MigrateUp(); err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
