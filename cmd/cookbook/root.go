// ABOUTME: Root command wiring config, logging, and the recipe store.
// ABOUTME: Every subcommand except version runs against the opened store.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/harper/cookbook/internal/config"
	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/store"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

// skipStore marks commands that run without opening the store.
const skipStore = "skip-store"

var (
	cfg         *config.Config
	appLog      *logger.Logger
	recipeStore *store.Store
	normalizer  *imaging.Normalizer
)

var rootCmd = &cobra.Command{
	Use:   "cookbook",
	Short: "A personal recipe keeper",
	Long: `Keep your recipes with photos, ratings, and notes.

Recipes live in a local database with a fixed storage budget. Photos are
downscaled and compressed before they are saved, and unsaved edits are
kept as a draft you can recover with "cookbook add --from-draft".`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  openStore,
	PersistentPostRunE: closeStore,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd.Version = fmt.Sprintf("%s (%s, %s)", version, commit, date)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	_ = closeStore(nil, nil)
	return err
}

func openStore(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipStore] == "true" {
		return nil
	}

	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	appLog = logger.NewFile(cfg.LogPath(), cfg.LogLevel)
	appLog.Debug().Str("command", cmd.CommandPath()).Str("backend", cfg.Backend).Msg("starting")

	backend, err := kv.Open(cfg.Backend, cfg.DataDir, appLog)
	if err != nil {
		if errors.Is(err, kv.ErrLocked) {
			return fmt.Errorf("%w (is \"cookbook mcp\" running?)", err)
		}
		return fmt.Errorf("failed to open storage: %w", err)
	}

	quota, err := kv.NewQuota(backend, cfg.QuotaLimit())
	if err != nil {
		_ = backend.Close()
		return fmt.Errorf("failed to measure storage: %w", err)
	}

	recipeStore = store.New(quota, store.WithLogger(appLog))
	normalizer = imaging.New(cfg.ImageOptions(), appLog)
	return nil
}

func closeStore(cmd *cobra.Command, args []string) error {
	var err error
	if recipeStore != nil {
		err = recipeStore.Close()
		recipeStore = nil
	}
	if appLog != nil {
		_ = appLog.Close()
		appLog = nil
	}
	return err
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		c.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("backend") {
		c.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("quota") {
		c.QuotaBytes, _ = flags.GetInt64("quota")
	}
	return c.Validate()
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default $XDG_DATA_HOME/cookbook)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend (badger|sqlite|memory)")
	rootCmd.PersistentFlags().Int64("quota", 0, "storage budget in bytes, -1 for unlimited")
}
