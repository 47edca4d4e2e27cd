package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hession/sidekick/internal/cli"
	"github.com/hession/sidekick/internal/config"
	"github.com/hession/sidekick/internal/logger"
	"github.com/hession/sidekick/internal/memory"
)

var (
	version = "0.1.0"
)

func initLogger() {
	if err := logger.Init(logger.Config{
		LogDir:  config.LogDir(),
		Level:   logger.INFO,
		MaxDays: 7,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sidekick",
		Short: "Sidekick - Your Personal AI Companion",
		Long: `Sidekick is a personal AI companion that remembers you between
conversations.

It can:
  • Have natural language conversations with you
  • Remember facts about you and build a profile over time
  • Switch between quick buddy mode and deep research mode
  • Search the web, fetch pages, run commands and edit files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger()
			defer logger.Close()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return cli.Run(cfg)
		},
	}

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Sidekick v%s\n", version)
		},
	}

	// sessions cleanup subcommand
	var cleanupDays int
	sessionsCleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old session records",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger()
			defer logger.Close()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			days := cleanupDays
			if days <= 0 {
				days = cfg.Memory.SessionRetentionDays
			}

			sessions, err := memory.NewSessionManager(filepath.Join(cfg.Memory.DataDir, "sessions"), nil)
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}

			removed, err := sessions.CleanupOldSessions(days)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d session records older than %d days\n", removed, days)
			return nil
		},
	}
	sessionsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "delete sessions older than this many days (default from config)")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved conversation sessions",
	}
	sessionsCmd.AddCommand(sessionsCleanupCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
