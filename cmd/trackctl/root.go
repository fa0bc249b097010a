package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/trackctl/internal/prefs"
	"github.com/mmcdole/trackctl/internal/tui"
)

// rootOptions are flags shared by every command
type rootOptions struct {
	server string
	json   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var view string

	cmd := &cobra.Command{
		Use:   "trackctl",
		Short: "Browse and manage a music track catalog",
		Long: `trackctl is a terminal client for a music track catalog server.

Run without arguments to open the interactive browser. The subcommands
cover the same operations for scripting.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts, view)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "catalog server URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&view, "view", "", "open a shareable view query, e.g. \"page=2&sort=title\"")

	cmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newUploadCmd(opts),
		newRemoveFileCmd(opts),
		newGenresCmd(opts),
		newPlayCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// withApp runs fn against a fully wired app
func withApp(ctx context.Context, opts *rootOptions, view string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closeLog := setupLogging(cfg)
	defer closeLog()

	a, err := newApp(cfg, logger, view)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// runTUI opens the interactive browser, running first-time setup when no
// server is configured
func runTUI(ctx context.Context, opts *rootOptions, view string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closeLog := setupLogging(cfg)
	defer closeLog()

	logger.Info("starting trackctl", "version", Version)

	if !cfg.IsConfigured() {
		if err := runSetupFlow(ctx, cfg, logger); err != nil {
			return err
		}
	}

	p, _ := prefs.Load(prefs.DefaultPath())
	if view == "" {
		view = p.LastView
	}

	a, err := newApp(cfg, logger, view)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewModel(a.library, a.playback, p, cfg.UI.Debounce, logger)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := program.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	p.LastView = a.library.View().Query()
	if err := prefs.Save(prefs.DefaultPath(), p); err != nil {
		logger.Warn("failed to save preferences", "error", err)
	}

	logger.Info("shutting down")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trackctl %s\n", Version)
		},
	}
}

// logFailure records a command failure in the log file
func logFailure(logger *slog.Logger, op string, err error) error {
	if err != nil {
		logger.Error("failed to "+op, "error", err)
	}
	return err
}
