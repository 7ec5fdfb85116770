package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tabletodo/internal/auth"
	"github.com/Makepad-fr/tabletodo/internal/config"
	"github.com/Makepad-fr/tabletodo/internal/logging"
	"github.com/Makepad-fr/tabletodo/internal/store"
	"github.com/Makepad-fr/tabletodo/internal/store/jsonstore"
	"github.com/Makepad-fr/tabletodo/internal/store/memstore"
	"github.com/Makepad-fr/tabletodo/internal/store/rest"
	"github.com/Makepad-fr/tabletodo/internal/store/sqlstore"
	"github.com/Makepad-fr/tabletodo/internal/todos"
	"github.com/Makepad-fr/tabletodo/internal/ui"
)

// app is the state shared by all commands of one invocation.
type app struct {
	flags *globalFlags
	cfg   *config.Config
	creds auth.Store

	closers []io.Closer
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile, a.flags.overrides(cmd))
	if err != nil {
		return failure("config: %w", err)
	}
	a.cfg = cfg

	dir, err := config.Dir()
	if err != nil {
		return failure("%w", err)
	}
	a.creds = auth.Store{Dir: dir}

	if err := ui.SetTheme(cfg.Theme); err != nil {
		return usage("config: %w", err)
	}
	if cfg.NoColor {
		ui.SetColorForcing(false, true)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// logger writes to the configured log file so diagnostics never interleave
// with command output or the TUI. toStderr is for long-running servers.
func (a *app) logger(toStderr bool) *log.Logger {
	opts := logging.Options{Level: a.cfg.LogLevel, File: a.cfg.LogFile, Out: os.Stderr}
	if toStderr {
		opts.File = ""
	}
	logger, closer := logging.New(opts)
	a.closers = append(a.closers, closer)
	return logger
}

// openTable opens the backend named by backend.
func (a *app) openTable(ctx context.Context, backend string) (store.Table, error) {
	switch backend {
	case config.BackendREST:
		if a.cfg.URL == "" {
			return nil, fmt.Errorf("no table url: set TADA_URL (or SUPABASE_URL) or url in the config file")
		}
		key, err := a.creds.Key()
		if err != nil {
			return nil, err
		}
		return rest.New(rest.Options{
			BaseURL: a.cfg.URL,
			Table:   a.cfg.Table,
			APIKey:  key,
			Timeout: a.cfg.Timeout,
		})
	case config.BackendJSON:
		return jsonstore.New(a.cfg.DataFile)
	case config.BackendSQLite:
		s, err := sqlstore.Open(ctx, a.cfg.SQLitePath, a.cfg.Table)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.BackendMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// syncer opens the configured table and wraps it.
func (a *app) syncer(ctx context.Context) (*todos.Syncer, error) {
	table, err := a.openTable(ctx, a.cfg.Backend)
	if err != nil {
		return nil, failure("open table: %w", err)
	}
	return todos.New(table, a.logger(false)), nil
}
