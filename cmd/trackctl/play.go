package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mmcdole/trackctl/internal/adapter"
)

func newPlayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id>",
		Short: "Play a track's audio with the configured player",
		Long:  "Play a track and wait until the player exits. Ctrl+C stops playback.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				t, err := a.library.GetTrack(ctx, args[0])
				if err != nil {
					return logFailure(a.logger, "get track", err)
				}

				stopped := make(chan struct{})
				var once sync.Once
				a.session.Playback.OnChange(func(_, next string) {
					if next == "" {
						once.Do(func() { close(stopped) })
					}
				})

				if _, err := a.playback.Toggle(ctx, t); err != nil {
					return logFailure(a.logger, "play track", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "▶ %s - %s\n", t.Artist, t.Title)

				select {
				case <-stopped:
				case <-ctx.Done():
					a.playback.Stop()
				}
				return nil
			})
		},
	}
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local query cache",
	}

	var view string
	warm := &cobra.Command{
		Use:   "warm",
		Short: "Load a view and the genre list into the cache",
		Long:  "Fetch the given view (default: first page) and the genre list so the next session opens from fresh data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, view, func(ctx context.Context, a *app) error {
				if err := a.library.Warm(ctx); err != nil {
					return logFailure(a.logger, "warm cache", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cached ?%s and genres\n", a.library.View().Query())
				return nil
			})
		},
	}
	warm.Flags().StringVar(&view, "view", "", "shareable view query to load")
	cmd.AddCommand(warm)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached query results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				dir = adapter.GetCachePath()
			}
			if err := adapter.ClearCache(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", dir)
			return nil
		},
	})

	return cmd
}
