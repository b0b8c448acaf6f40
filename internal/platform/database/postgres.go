package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skillwise/internal/platform/config"
	"skillwise/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect(ctx context.Context, log *logger.Logger) error {
	db, err := sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("connect to database: %w", err)
	}

	DB = db
	log.Info("connected to PostgreSQL", "host", config.AppConfig.DBHost, "database", config.AppConfig.DBName)
	return nil
}

func Close(log *logger.Logger) {
	if DB != nil {
		DB.Close()
		log.Info("database connection closed")
	}
}
