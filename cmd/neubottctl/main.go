// Command neubottctl manages the facts database and inspects the schedule
// cache from a shell, without going through Telegram.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"

	"neubott/internal/config"
	"neubott/internal/facts"
	"neubott/internal/storage"
)

type options struct {
	driver  string
	dbPath  string
	guild   string
	verbose bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "neubottctl",
		Short:         "Operate the Neubott facts database and Splatoon schedule cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", envOrDefault("DATABASE_DRIVER", config.DriverSQLite), "storage driver: sqlite or mysql")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", envOrDefault("DATABASE_PATH", "./data/simples.sqlite"), "sqlite path or mysql DSN")
	root.PersistentFlags().StringVar(&opts.guild, "guild", "", "chat ID the command acts for")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newFactsCmd(opts), newScheduleCmd(opts))
	return root
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openService opens the configured storage. The caller closes the returned store.
func (o *options) openService(cmd *cobra.Command) (*facts.Service, storage.Facts, error) {
	var (
		store storage.Facts
		err   error
	)
	switch o.driver {
	case config.DriverMySQL:
		store, err = storage.NewGorm(mysql.Open(o.dbPath))
	case config.DriverSQLite:
		if dir := filepath.Dir(o.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		store, err = storage.NewSQLite(o.dbPath)
	default:
		return nil, nil, fmt.Errorf("unsupported driver %q, use: sqlite, mysql", o.driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return facts.NewService(store, o.logger(cmd)), store, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
