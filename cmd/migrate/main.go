// Command migrate applies, rolls back or reports the goose migrations for
// the configured store.
//
//	migrate [up|down|status|version]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ghuser/medshelf/migrations"
	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/logger"
	"github.com/ghuser/medshelf/pkg/migrator"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("component", "migrate")

	if err := run(context.Background(), cmd, cfg, log); err != nil {
		log.Error("migrate failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, log logger.Logger) error {
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	files, err := migrations.For(db.Driver())
	if err != nil {
		return err
	}
	m, err := migrator.New(db.DB(), db.Driver(), files, log)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down, status or version)", cmd)
	}
}
