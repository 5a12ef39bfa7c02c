package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/cli/backups"
	"github.com/julianstephens/streaks/internal/cli/goals"
	"github.com/julianstephens/streaks/internal/cli/system"
	"github.com/julianstephens/streaks/internal/config"
	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/keyring"
	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/storage/postgres"
	"github.com/julianstephens/streaks/internal/storage/sqlite"
	"github.com/julianstephens/streaks/internal/tracker"
	"github.com/julianstephens/streaks/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"string" default:"${default_config}"`
	DB       string `help:"SQLite database path. Overrides database.path and forces SQLite storage." type:"string"`
	Timezone string `help:"IANA timezone used to evaluate calendar days. Overrides the config."`
	Debug    bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Initialize streaks storage and write a default config."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the HTTP API with live updates."`
	Inc      goals.IncCmd       `cmd:"" help:"Record a success (+1) for a goal."`
	Dec      goals.DecCmd       `cmd:"" help:"Record a miss (-1) for a goal."`
	Show     goals.GoalShowCmd  `cmd:"" help:"Show a goal's stats and calendar grid."`
	Export   system.ExportCmd   `cmd:"" help:"Export goals, events and stats."`
	Backfill system.BackfillCmd `cmd:"" help:"Record misses for days without activity."`
	Goal     struct {
		Add    goals.GoalAddCmd    `cmd:"" help:"Add a new goal."`
		Edit   goals.GoalEditCmd   `cmd:"" help:"Edit an existing goal."`
		Delete goals.GoalDeleteCmd `cmd:"" help:"Delete a goal and its events."`
		List   goals.GoalListCmd   `cmd:"" help:"List all goals." default:"1"`
		Show   goals.GoalShowCmd   `cmd:"" help:"Show a goal's stats and calendar grid."`
	} `cmd:"" help:"Manage goals."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check whether the OS keyring is available."`
	} `cmd:"" help:"Manage PostgreSQL credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Goal and habit tracker with streaks, stats and a calendar grid"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	apperrors.Fatal(run(ctx))
}

func run(ctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	configPath, err := utils.ExpandHome(CLI.Config)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: filepath.Dir(configPath)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	appCtx := &cli.Context{
		Context:    context.Background(),
		Config:     cfg,
		ConfigPath: configPath,
		Out:        os.Stdout,
	}

	command := strings.Fields(ctx.Command())[0]
	if command == "keyring" {
		return ctx.Run(appCtx)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	appCtx.Store = store

	// init and migrate bring the schema up to date themselves
	if command == "init" || command == "migrate" {
		return ctx.Run(appCtx)
	}

	if err := store.Load(appCtx.Context); err != nil {
		return err
	}

	hub := live.NewHub(store)
	defer hub.Close()
	appCtx.Service = tracker.NewService(store, hub, tracker.WithLocation(loc))

	if _, err := appCtx.Service.ReconcileOnce(appCtx.Context); err != nil {
		logger.Error("Backfill failed", "error", err)
	}

	return ctx.Run(appCtx)
}

// applyFlags layers command-line overrides on top of the loaded config.
func applyFlags(cfg *config.Config) error {
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.Timezone != "" {
		if !utils.ValidateTimezone(CLI.Timezone) {
			return fmt.Errorf("invalid timezone %q", CLI.Timezone)
		}
		cfg.Timezone = CLI.Timezone
	}
	if CLI.DB != "" {
		cfg.Database.Type = config.DatabaseSQLite
		cfg.Database.Path = CLI.DB
	}
	return nil
}

func openStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Database.Type {
	case config.DatabasePostgres:
		if _, err := postgres.ValidateConnString(cfg.Database.DSN); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("database.dsn must not contain a password; use %s, 'streaks keyring set', or .pgpass instead", constants.EnvDBConnection)
			}
			return nil, err
		}
		connStr, source, err := keyring.ResolveConnectionString(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using PostgreSQL connection string", "source", source)
		return postgres.New(connStr), nil
	default:
		path, err := utils.ExpandHome(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		return sqlite.NewStore(path), nil
	}
}
