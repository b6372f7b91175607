package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"neubott/migrations"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  up          Migrate the facts database to the latest version")
	fmt.Fprintln(os.Stderr, "  up-one      Migrate one version up")
	fmt.Fprintln(os.Stderr, "  down        Roll back one version")
	fmt.Fprintln(os.Stderr, "  status      Show migration status")
	fmt.Fprintln(os.Stderr, "  version     Show current version")
	fmt.Fprintln(os.Stderr, "  reset       Roll back all migrations")
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/simples.sqlite"), "path to sqlite database")
	flag.Usage = usage
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Error("open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		log.Error("create provider", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := args[0]
	if err := run(ctx, provider, cmd); err != nil {
		log.Error("migrate", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, p *goose.Provider, cmd string) error {
	switch cmd {
	case "up":
		results, err := p.Up(ctx)
		printResults(results)
		return err
	case "up-one":
		res, err := p.UpByOne(ctx)
		printResults([]*goose.MigrationResult{res})
		return err
	case "down":
		res, err := p.Down(ctx)
		printResults([]*goose.MigrationResult{res})
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			applied := "pending"
			if st.State == goose.StateApplied {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%5d  %-20s  %s\n", st.Source.Version, applied, st.Source.Path)
		}
		return nil
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("version %d\n", v)
		return nil
	case "reset":
		results, err := p.DownTo(ctx, 0)
		printResults(results)
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printResults(results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Printf("%-4s %5d  %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
