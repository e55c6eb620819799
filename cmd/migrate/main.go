package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/logging"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	convertLegacy := flag.Bool("convert-legacy", false, "Rewrite bracketed legacy list columns as JSON arrays")
	batchSize := flag.Int("batch-size", 500, "Rows per batch for -convert-legacy")
	migrationsDir := flag.String("dir", "migrations", "Directory holding the SQL migrations")
	flag.Parse()

	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console"})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			logging.Fatal().Err(err).Msg("DATABASE_URL is not set and configuration could not be loaded")
		}
		dsn = database.PostgresDSN(cfg)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logging.Fatal().Err(err).Msg("failed to reach database")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize gorm")
	}

	switch {
	case *rollback:
		name, err := database.RollbackLast(db, *migrationsDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("rollback failed")
		}
		fmt.Printf("Successfully rolled back migration: %s\n", name)

	case *convertLegacy:
		updated, err := database.ConvertLegacyLists(context.Background(), db, *batchSize)
		if err != nil {
			logging.Fatal().Err(err).Int("updated", updated).Msg("legacy conversion failed")
		}
		fmt.Printf("Converted %d recipes to JSON list encoding.\n", updated)

	default:
		if err := database.RunMigrations(db, *migrationsDir); err != nil {
			logging.Fatal().Err(err).Msg("migration failed")
		}
		fmt.Println("All migrations applied successfully.")
	}
}
