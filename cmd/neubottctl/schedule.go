package main

import (
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"neubott/internal/schedule"
)

func newScheduleCmd(opts *options) *cobra.Command {
	var (
		cacheDir  string
		redisAddr string
		prefix    string
		baseURL   string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the current rotation and Salmon Run shift, refreshing expired snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var store schedule.SnapshotStore = schedule.NewFileStore(cacheDir)
			if redisAddr != "" {
				client := redis.NewClient(&redis.Options{Addr: redisAddr})
				defer func() { _ = client.Close() }()
				store = schedule.NewRedisStore(client, prefix)
			}

			cache := schedule.NewCache(store, schedule.NewFetcher(schedule.NewHTTPClient()), baseURL, opts.logger(cmd))
			out := cmd.OutOrStdout()

			rotation, err := cache.Rotation(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "rotation: %v\n", err)
			} else {
				printRotation(out, rotation)
			}

			shift, err := cache.Shift(cmd.Context())
			if err != nil {
				return fmt.Errorf("shift: %w", err)
			}
			printShift(out, shift)
			return nil
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", envOrDefault("CACHE_DIR", "./resources/.cache"), "file snapshot directory")
	cmd.Flags().StringVar(&redisAddr, "redis", envOrDefault("REDIS_ADDR", ""), "use the Redis snapshot store at this address")
	cmd.Flags().StringVar(&prefix, "prefix", envOrDefault("CACHE_KEY_PREFIX", "neubott:"), "Redis key prefix")
	cmd.Flags().StringVar(&baseURL, "base-url", envOrDefault("SPLATOON_BASE_URL", schedule.DefaultBaseURL), "schedule source")
	return cmd
}

func printRotation(w io.Writer, s schedule.RotationSummary) {
	fmt.Fprintf(w, "Rotation (%d min left, cached=%v)\n", int(s.Remaining/time.Minute), s.Cached)
	for _, m := range []struct {
		name string
		mode schedule.Mode
	}{{"Turf War", s.TurfWar}, {"Ranked", s.Ranked}, {"League", s.League}} {
		fmt.Fprintf(w, "  %-8s %-12s %s / %s\n", m.name, m.mode.Rule, m.mode.Stages[0], m.mode.Stages[1])
	}
}

func printShift(w io.Writer, s schedule.ShiftSummary) {
	if !s.Open {
		fmt.Fprintf(w, "Salmon Run opens in %d hours\n", int(s.UntilOpen/time.Hour))
		return
	}
	fmt.Fprintf(w, "Salmon Run (%d h left, cached=%v)\n", int(s.Remaining/time.Hour), s.Cached)
	fmt.Fprintf(w, "  Stage    %s\n", s.Stage)
	for _, wpn := range s.Weapons {
		name := wpn.Name
		if wpn.Special {
			name = "*" + name + "*"
		}
		fmt.Fprintf(w, "  Weapon   %s\n", name)
	}
}
