package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/config"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/db"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/migrate"
)

const usage = `usage: %s <command>
  migrate  apply pending schema migrations
  seed     apply schema migrations, then pending demo data
`

func main() {
	os.Exit(run(os.Args))
}

// run returns the process exit code. Returning instead of exiting lets the
// deferred close run on every path.
func run(args []string) int {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, usage, args[0])
		return 1
	}
	cmd := args[1]
	if cmd != "migrate" && cmd != "seed" {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		return 1
	}

	cfg, err := config.LoadStoreFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	// The migration files are written for the SQLite dev store; production
	// Postgres schema is owned elsewhere.
	if cfg.Driver != config.DriverSQLite {
		fmt.Fprintf(os.Stderr, "migrate only supports DB_DRIVER=%s (got %q)\n", config.DriverSQLite, cfg.Driver)
		return 1
	}

	conn, err := db.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	msg, err := runCommand(context.Background(), conn, cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(msg)
	return 0
}

func runCommand(ctx context.Context, conn *sql.DB, cmd string) (string, error) {
	switch cmd {
	case "migrate":
		if err := migrate.Run(ctx, conn); err != nil {
			return "", fmt.Errorf("migrate: %w", err)
		}
		return "migrations applied", nil
	case "seed":
		if err := migrate.Run(ctx, conn); err != nil {
			return "", fmt.Errorf("migrate: %w", err)
		}
		if err := migrate.Seed(ctx, conn); err != nil {
			return "", fmt.Errorf("seed: %w", err)
		}
		return "seed data applied", nil
	default:
		return "", fmt.Errorf("unknown command: %s", cmd)
	}
}
