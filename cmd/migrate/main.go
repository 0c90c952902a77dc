// Command migrate manages the storefront database schema.
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

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
)

var errUsage = errors.New("usage")

func main() {
	var (
		opts     options
		logLevel string
	)
	flag.StringVar(&opts.path, "path", "", "Path to migrations directory (default: database.migrations_path)")
	flag.StringVar(&opts.databaseURL, "database-url", "", "Postgres URL; overrides the configured database")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.confirm, "confirm", false, "Confirm a destructive command such as down")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(log, args, opts)
	_ = log.Sync()
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	path        string
	databaseURL string
	confirm     bool
}

func run(log *zap.Logger, args []string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	path := opts.path
	if path == "" {
		path = cfg.Database.MigrationsPath
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	command := args[0]
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", path),
	)

	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		desc := ""
		if len(args) > 2 {
			desc = args[2]
		}
		mf, err := migration.CreateMigration(path, args[1], desc)
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
		entries, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("  %d  %s\n", e.Version, e.Base)
		}
		log.Info("Available migrations", zap.Int("count", len(entries)))
		return migration.Validate(path)
	}

	m, err := openMigrator(cfg, opts.databaseURL, path, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()

	case "down":
		if !opts.confirm {
			return errors.New("down rolls back every migration; rerun as: migrate -confirm down")
		}
		return m.Down()

	case "step":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate step <n>", errUsage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate goto <version>", errUsage)
		}
		v, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.GoTo(uint(v))

	case "version", "status":
		st, err := m.Status()
		if err != nil {
			return err
		}
		if !st.Applied {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
		}
		pending, err := m.Pending()
		if err != nil {
			return err
		}
		for _, e := range pending {
			fmt.Printf("  pending  %s\n", e.Base)
		}
		return nil

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate force <version>", errUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(v)
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

// openMigrator connects to databaseURL when given, otherwise to the
// configured database.
func openMigrator(cfg *config.Config, databaseURL, path string, log *zap.Logger) (*migration.Migrator, error) {
	if databaseURL != "" {
		return migration.NewFromURL(databaseURL, path, log)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return migration.New(db, path, log)
}

func printUsage() {
	fmt.Println(`Storefront database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back every migration (needs -confirm before the command)
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  status                Show the current version and pending migrations
  force <version>       Record a version without running it (clears dirty state)
  create <name> [desc]  Scaffold a new migration pair
  list                  List migrations on disk and check each has a rollback

Flags:
  -path string          Migrations directory (default: database.migrations_path)
  -database-url string  Postgres URL overriding the configured database
  -log-level string     debug, info, warn, error (default: info)
  -confirm              Required by down

Database settings come from config.toml or STOREFRONT_DATABASE_* variables.`)
}
