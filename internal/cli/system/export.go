package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/export"
)

type ExportCmd struct {
	Format string `short:"f" help:"Output format (json|yaml)." default:"json"`
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	doc, err := export.Build(ctx.Ctx(), ctx.Store, ctx.Service.Now())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if c.Output == "" {
		return export.Write(ctx.Writer(), doc, format)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Output, err)
	}
	if err := export.Write(f, doc, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctx.Printf("✓ Exported %d goal(s) to %s\n", len(doc.Goals), c.Output)
	return nil
}
