package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/belphemur/canteen-menu/internal/config"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/menuapi"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "canteen-menu",
	Short: "Daily canteen menu viewer",
	Long: `canteen-menu shows the daily canteen menu published by the menu backend.
It serves a small web page with date navigation, a light/dark theme and
"new menu" notifications, and offers terminal commands to read, rescan
and export menus.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Determine if we're in development mode
		isDev := os.Getenv("ENV") != "production"
		if cmd == serveCmd {
			logging.Initialize(isDev)
			return
		}
		// Terminal commands print results on stdout, keep logs out of the way
		logging.InitializeWithWriter(os.Stderr, isDev)
	},
}

func init() {
	defaultConfig := os.Getenv("CONFIG_FILE")
	if defaultConfig == "" {
		defaultConfig = "configs/canteen-menu.toml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "config file path")

	rootCmd.AddCommand(serveCmd, showCmd, rescanCmd, exportCmd)
}

func main() {
	// Create context that's canceled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies its log level
func loadConfig() (*config.Config, error) {
	logger := logging.GetLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return nil, err
	}

	logging.SetLogLevel(cfg.Service.LogLevel)
	logger.Debug().Str("log_level", cfg.Service.LogLevel).Str("api", cfg.API.BaseURL).Msg("Configuration loaded")
	return cfg, nil
}

func newAPIClient(cfg *config.Config) *menuapi.Client {
	return menuapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, menuapi.WithCheckTimeout(cfg.API.CheckTimeout))
}
