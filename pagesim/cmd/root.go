// Package cmd provides the command-line interface of pagesim.
package cmd

import (
	"log/slog"
	"os"

	"github.com/sarchlab/pagesim/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagesim",
	Short: "pagesim simulates processes running on demand-paged memory.",
	Long: `pagesim runs simple memory programs against per-process virtual ` +
		`address spaces backed by a shared RAM and swap devices, with FIFO ` +
		`page replacement.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"JSON configuration file")
	rootCmd.PersistentFlags().StringSlice("env-file", nil,
		"dotenv files with PAGESIM_* overrides (default .env if present)")
	rootCmd.PersistentFlags().String("log-level", "",
		"log level: debug, info, warn or error")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig layers the defaults, the config file, the environment, and
// the command-line flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnv(&cfg, envFiles...); err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})), nil
}
