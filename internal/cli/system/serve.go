package system

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/streaks/internal/api"
	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/config"
	"github.com/julianstephens/streaks/internal/logger"
)

type ServeCmd struct {
	Listen string   `short:"l" help:"Address to listen on. Defaults to api.listen from the config."`
	Origin []string `help:"Allowed CORS origin. Repeatable; overrides api.allowed_origins."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.Default()
	}

	addr := cfg.API.Listen
	if c.Listen != "" {
		addr = c.Listen
	}
	origins := cfg.API.AllowedOrigins
	if len(c.Origin) > 0 {
		origins = c.Origin
	}

	runCtx, stop := signal.NotifyContext(ctx.Ctx(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.Get()
	h := api.NewHandler(ctx.Service, ctx.GridRows(), l)
	return api.Serve(runCtx, addr, api.NewRouter(h, origins), l)
}
