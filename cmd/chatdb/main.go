package main

import (
	"fmt"
	"os"
	"time"

	"chatdb-go/internal/app"
	"chatdb-go/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file if one exists, falling back to defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.LoadOrDefault(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return cfg, nil
}

// databasePath resolves the database a command operates on: the flag when
// given, otherwise the configured default.
func databasePath(cmd *cobra.Command, flag string, cfg *config.Config) string {
	path, _ := cmd.Flags().GetString(flag)
	if path != "" {
		return path
	}
	return cfg.Database.DefaultPath
}

var rootCmd = &cobra.Command{
	Use:   "chatdb",
	Short: "Import conversation export archives into a SQLite database",
}

// import command
var importCmd = &cobra.Command{
	Use:   "import ZIPFILE",
	Short: "Import an export archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath := databasePath(cmd, "output", cfg)

		a, err := app.NewImportApp(cfg, args[0], dbPath)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Import()
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %d conversations, %d messages, and %d assets\n",
			stats.Conversations, stats.Messages, stats.Assets)
		fmt.Printf("Database created at: %s\n", dbPath)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past import runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runs, err := app.ListHistory(databasePath(cmd, "database", cfg), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No import runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt != nil {
				d := run.FinishedAt.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("%.8s  %s  %-8s  %d conv / %d msg / %d assets  %s\n",
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				run.Conversations,
				run.Messages,
				run.Assets,
				duration,
			)
		}
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts of an imported database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		counts, err := app.GetCounts(databasePath(cmd, "database", cfg))
		if err != nil {
			return err
		}

		fmt.Printf("Conversations: %d\n", counts.Conversations)
		fmt.Printf("Messages:      %d\n", counts.Messages)
		fmt.Printf("Assets:        %d\n", counts.Assets)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Log Dir: %s\n", cfg.LogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.LoadOrDefault(defaults["config_path"], defaults["base_dir"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Log Dir:          %s\n", cfg.LogDir)
		fmt.Printf("Default Database: %s\n", cfg.Database.DefaultPath)
		return nil
	},
}

func init() {
	importCmd.Flags().StringP("output", "o", "", "Output SQLite database file (defaults to conversations.db)")

	historyCmd.Flags().StringP("database", "d", "", "Database to inspect")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")

	statsCmd.Flags().StringP("database", "d", "", "Database to inspect")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}
