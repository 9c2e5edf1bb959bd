package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"loyalty-service/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens a connection to an existing database, creating it from
// schemaFile when it does not exist yet. The billing store is connected
// without a schema file since its shape is owned by the billing system.
func Connect(cfg config.PostgresConfig, schemaFile string) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		if _, err = defaultDB.Exec(createQuery); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		log.Printf("database %q created", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if !exists && schemaFile != "" {
		if err := executeSchema(db, schemaFile); err != nil {
			log.Printf("warning: failed to execute %s: %v", schemaFile, err)
			// Not fatal, schema can be applied manually.
		}
	}

	return db, nil
}

func executeSchema(db *sqlx.DB, schemaFile string) error {
	schemaContent, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", schemaFile, err)
	}

	statements := strings.Split(string(schemaContent), ";")
	successCount := 0
	for i, statement := range statements {
		statement = stripLineComments(statement)
		if statement == "" {
			continue
		}
		if _, err := db.Exec(statement); err != nil {
			log.Printf("warning: schema statement %d failed: %v", i+1, err)
			continue
		}
		successCount++
	}

	log.Printf("schema execution completed, %d statements applied", successCount)
	return nil
}

// stripLineComments drops "--" comment lines so a commented statement is
// not mistaken for an empty one.
func stripLineComments(statement string) string {
	var kept []string
	for _, line := range strings.Split(statement, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// RetryConnect keeps trying to establish the connection until it succeeds.
// Used when a store is unreachable at startup; the worker must still come up
// and begin processing once the database returns.
func RetryConnect(wait time.Duration, db **sqlx.DB, cfg config.PostgresConfig, schemaFile string) {
	for {
		if *db != nil {
			if err := (*db).Ping(); err == nil {
				return
			}
		}

		newDB, err := Connect(cfg, schemaFile)
		if err == nil {
			*db = newDB
			log.Printf("database %q connection established on retry", cfg.DBname)
			return
		}
		log.Printf("failed to connect to %q: %s, next retry in %v", cfg.DBname, err, wait)
		time.Sleep(wait)
	}
}
