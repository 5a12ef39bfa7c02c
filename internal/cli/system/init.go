package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/config"
	"github.com/julianstephens/streaks/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(ctx.Ctx()); err != nil {
		return err
	}
	ctx.Printf("Initialized streaks storage at: %s\n", ctx.Store.GetConfigPath())

	// Keep an existing config file
	if ctx.ConfigPath == "" {
		return nil
	}
	if _, err := os.Stat(ctx.ConfigPath); err == nil {
		return nil
	}
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Init(ctx.ConfigPath, cfg); err != nil {
		return err
	}
	ctx.Printf("Wrote config file: %s\n", ctx.ConfigPath)
	return nil
}

// reset deletes the SQLite file so Init starts from an empty schema.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force is only supported for SQLite storage")
	}

	dbPath := ctx.Store.GetConfigPath()
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	// Close first to release the file handle.
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}
