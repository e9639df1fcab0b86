package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/ManuelReschke/JobFox/internal/pkg/env"
	applog "github.com/ManuelReschke/JobFox/internal/pkg/logger"
)

func main() {
	env.SetupEnvFile()
	zlog, err := applog.Setup(env.GetEnv("LOG_LEVEL", "info"), true)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	dbURL := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "jobfox"),
		env.GetEnv("DB_PASSWORD", "jobfox"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "jobfox_db"),
	)
	zlog.Info("connecting to database",
		zap.String("user", env.GetEnv("DB_USER", "jobfox")),
		zap.String("host", env.GetEnv("DB_HOST", "db")),
		zap.String("port", env.GetEnv("DB_PORT", "3306")),
		zap.String("database", env.GetEnv("DB_NAME", "jobfox_db")),
	)

	m, err := migrate.New(env.GetEnv("MIGRATIONS_SOURCE", "file://migrations"), dbURL)
	if err != nil {
		zlog.Fatal("failed to initialize migrations", zap.Error(err))
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			zlog.Warn("failed to close migration resources", zap.NamedError("source", sourceErr), zap.NamedError("database", dbErr))
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			zlog.Info("no change: database is up to date")
		case err != nil:
			zlog.Fatal("failed to apply migrations", zap.Error(err))
		default:
			zlog.Info("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			zlog.Fatal("failed to roll back the last migration", zap.Error(err))
		}
		zlog.Info("rolled back the last migration")

	case "goto":
		version := versionArg(zlog)
		err := m.Migrate(version)
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			zlog.Info("no change: database is already at version", zap.Uint("version", version))
		case err != nil:
			zlog.Fatal("failed to migrate", zap.Uint("version", version), zap.Error(err))
		default:
			zlog.Info("migrated", zap.Uint("version", version))
		}

	case "force":
		version := versionArg(zlog)
		if err := m.Force(int(version)); err != nil {
			zlog.Fatal("failed to force version", zap.Uint("version", version), zap.Error(err))
		}
		zlog.Info("forced version", zap.Uint("version", version))

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			zlog.Info("no migrations applied yet")
		case err != nil:
			zlog.Fatal("failed to read migration version", zap.Error(err))
		default:
			zlog.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func versionArg(zlog *zap.Logger) uint {
	if len(os.Args) < 3 {
		zlog.Fatal("missing version number")
	}
	version, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		zlog.Fatal("invalid version number", zap.String("value", os.Args[2]), zap.Error(err))
	}
	return uint(version)
}

func printUsage() {
	fmt.Println("Usage: go run cmd/migrate/main.go [command]")
	fmt.Println("Commands:")
	fmt.Println("  up      - apply all pending migrations")
	fmt.Println("  down    - roll back the last migration")
	fmt.Println("  goto N  - migrate to version N")
	fmt.Println("  force N - set version N without running migrations")
	fmt.Println("  status  - show the current migration version")
}
