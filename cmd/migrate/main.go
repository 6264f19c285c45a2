// Command migrate manages the construction control database schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/egp/construction-control/internal/infrastructure/logger"
	"github.com/egp/construction-control/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("invalid usage")

func main() {
	var (
		migrationsPath string
		logLevel       string
		confirm        bool
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm destructive commands (drop)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	path, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}

	if err := run(args, path, confirm, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(args []string, path string, confirm bool, log *zap.Logger) error {
	command := args[0]
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", path),
	)

	// create and list work on the filesystem only.
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("%w: create <name> [description]", errUsage)
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(path, args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil

	case "list":
		migrations, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			marker := ""
			if !m.HasDown {
				marker = " (no down)"
			} else if !m.HasUp {
				marker = " (no up)"
			}
			fmt.Printf("  %s  %s%s\n", m.Version, m.Name, marker)
		}
		log.Info("Migrations listed", zap.Int("count", len(migrations)))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		if len(args) < 2 {
			return fmt.Errorf("%w: step <n>", errUsage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: step count %q", errUsage, args[1])
		}
		return m.Steps(n)
	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("%w: goto <version>", errUsage)
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: version %q", errUsage, args[1])
		}
		return m.GoTo(uint(version))
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("%w: force <version>", errUsage)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: version %q", errUsage, args[1])
		}
		return m.Force(version)
	case "drop":
		if !confirm {
			return fmt.Errorf("%w: drop requires -confirm", errUsage)
		}
		return m.Drop()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

// resolveMigrationsPath prefers the flag, then ./migrations, then the
// directory two levels above the executable.
func resolveMigrationsPath(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Construction control schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Mark a version as applied without running it
  drop                  Drop every database object (needs -confirm)
  create <name> [desc]  Create a new up/down migration pair
  list                  List migrations on disk

Flags:
  -path string          Migrations directory (default: ./migrations)
  -log-level string     debug, info, warn or error (default: info)
  -confirm              Confirm drop

Environment:
  CC_DATABASE_HOST, CC_DATABASE_PORT, CC_DATABASE_USER,
  CC_DATABASE_PASSWORD, CC_DATABASE_DBNAME, CC_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_delivery_notes "Free text notes on deliveries"`)
}
