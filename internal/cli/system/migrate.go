package system

import (
	"fmt"

	"github.com/julianstephens/streaks/internal/cli"
)

// MigrateCmd applies pending schema migrations to an existing store.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(ctx.Ctx()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	ctx.Printf("Database is up to date.\n")
	return nil
}
