package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("missing DATABASE_URL in environment variables")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatalf("could not open db connection: %v", err)
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("could not resolve working directory: %v", err)
	}
	migrationsDir := filepath.Join(wd, "migrations")

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = goose.Up(db, migrationsDir)
	case "down":
		err = goose.Down(db, migrationsDir)
	case "status":
		err = goose.Status(db, migrationsDir)
	default:
		log.Fatalf("unknown command %q, expected up, down or status", command)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", command, err)
	}

	log.Printf("migration %s completed", command)
}
