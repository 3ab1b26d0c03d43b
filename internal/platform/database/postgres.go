package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
)

// NewPostgresDB keeps retrying until the database answers a ping, so the
// service can start alongside its database container.
func NewPostgresDB(dsn string, logger *log.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	for i := 1; i <= maxRetries; i++ {
		logger.Printf("Connecting to database (attempt %d/%d)...", i, maxRetries)
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
		}

		if err == nil {
			logger.Println("Database connected successfully")
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(25)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		if db != nil {
			db.Close()
		}
		logger.Printf("Database not ready yet, waiting %s...", retryDelay)
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("could not connect to database: %w", err)
}
