// Package cli holds the state shared by every command and small helpers for
// resolving goals from command-line arguments.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/streaks/internal/backup"
	"github.com/julianstephens/streaks/internal/config"
	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/storage/sqlite"
	"github.com/julianstephens/streaks/internal/tracker"
)

type Context struct {
	Context    context.Context
	Store      storage.Provider
	Config     *config.Config
	ConfigPath string
	// Service is nil for commands that run before the store is loaded.
	Service *tracker.Service
	Out     io.Writer
}

func (c *Context) Ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// Writer returns the command output stream.
func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

// BackupManager returns a backup manager for SQLite stores.
func (c *Context) BackupManager() (*backup.Manager, error) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite storage; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(c.Ctx()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveGoal finds a goal by exact ID or by case-insensitive name. A name
// shared by several goals is rejected.
func (c *Context) ResolveGoal(ref string) (models.Goal, error) {
	ref = strings.TrimSpace(ref)
	goals, err := c.Service.Goals(c.Ctx())
	if err != nil {
		return models.Goal{}, err
	}

	var matches []models.Goal
	for _, g := range goals {
		if g.ID == ref {
			return g, nil
		}
		if strings.EqualFold(g.Name, ref) {
			matches = append(matches, g)
		}
	}

	switch len(matches) {
	case 0:
		return models.Goal{}, apperrors.NewNotFound("goal", ref)
	case 1:
		return matches[0], nil
	}
	return models.Goal{}, apperrors.NewValidation("goal", fmt.Sprintf("%q matches %d goals, use the ID instead", ref, len(matches)))
}

// GridRows returns the configured default grid height.
func (c *Context) GridRows() int {
	if c.Config == nil || c.Config.Grid.Rows < 1 {
		return constants.DefaultGridRows
	}
	return c.Config.Grid.Rows
}
