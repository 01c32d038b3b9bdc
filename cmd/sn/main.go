package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/config"
	"github.com/alfredjeanlab/sitenav/internal/ui"
)

var (
	backendURL string
	timeout    string
	logLevel   string
	jsonOutput bool

	cfg     *config.Config
	backend client.Backend
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "sn <command>",
	Short:         "Explore the page graph collected by a crawl backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		backend = client.NewHTTPClient(cfg.URL, client.WithTimeout(cfg.Timeout))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if backend != nil {
			backend.Close()
			backend = nil
		}
	},
}

// loadConfig builds cfg from the environment, the active remote and the
// global flags, in increasing precedence.
func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if path, err := config.RemotesPath(); err == nil {
		remotes, err := config.LoadRemotes(path)
		if err != nil {
			return err
		}
		if rem, ok := remotes.Current(); ok {
			c.ApplyRemote(rem)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		c.URL = backendURL
	}
	if flags.Changed("timeout") {
		d, err := parsePositiveDuration(timeout)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		c.Timeout = d
	}
	if flags.Changed("log-level") {
		if err := c.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	cfg = c
	logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "url", config.DefaultURL, "crawl backend base URL (env SITENAV_URL)")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "15s", "per-request timeout (env SITENAV_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "crawl", Title: "Crawl:"},
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Crawl
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(watchCmd)

	// Views
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(rootsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(previewCmd)

	// System
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(sandboxCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
