package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/belphemur/canteen-menu/internal/config"
	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/database"
	"github.com/belphemur/canteen-menu/internal/handlers"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/notify"
	"github.com/belphemur/canteen-menu/internal/theme"
	"github.com/belphemur/canteen-menu/internal/viewer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the menu page and keep it up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

// openDatabase creates the state directory, opens the preference database and migrates it
func openDatabase(cfg *config.Config) (*database.DB, error) {
	logger := logging.GetLogger("main")

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return nil, err
	}

	db, err := database.New(database.NewDefaultOptions(cfg.Service.StateFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return nil, wrappedErr
	}

	if err := db.MigrateDatabase(); err != nil {
		_ = db.Close()
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return nil, wrappedErr
	}
	return db, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.GetLogger("main")
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msgf("Starting %s", constants.AppName)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	preferences := database.NewPreferenceStore(db)

	page := handlers.NewPageModel()
	hub := handlers.NewNotificationHub(cfg.Notifications.Origins)
	hub.Listen()

	notifier := notify.New(preferences, hub, notify.Template{
		Title: cfg.Notifications.Title,
		Body:  cfg.Notifications.Body,
		Icon:  cfg.Notifications.Icon,
	})
	themeManager := theme.NewManager(preferences)

	controller, err := viewer.New(newAPIClient(cfg), page.Display(),
		viewer.WithNotifier(notifier),
		viewer.WithLocation(loc),
		viewer.WithSettleDelay(cfg.Poll.CheckSettleDelay),
	)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create menu controller: %w", err)
	}

	// Initialize static file handler
	staticHandler, err := handlers.NewStaticHandler()
	if err != nil {
		_ = db.Close()
		wrappedErr := fmt.Errorf("failed to initialize static handler: %w", err)
		logger.Error().Err(wrappedErr).Msg("Static handler initialization failed")
		return wrappedErr
	}

	// Initialize base handler first, as other handlers depend on it
	baseHandler, err := handlers.NewBaseHandler(page, staticHandler.GetCSSETag(), staticHandler.GetFaviconETag())
	if err != nil {
		_ = db.Close()
		wrappedErr := fmt.Errorf("failed to initialize base handler: %w", err)
		logger.Error().Err(wrappedErr).Msg("Base handler initialization failed")
		return wrappedErr
	}
	homeHandler := handlers.NewHomeHandler(baseHandler, themeManager)
	actionHandler := handlers.NewActionHandler(baseHandler, controller, themeManager, ctx, cfg.API.CheckTimeout+cfg.API.Timeout*2)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           handlers.NewRouter(staticHandler, homeHandler, actionHandler, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().Int("port", cfg.App.Port).Msg("Starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Initial load runs in the background so the page is served with its placeholder meanwhile
	go func() {
		if err := controller.Init(ctx); err != nil && !errors.Is(err, viewer.ErrSuperseded) {
			logger.Warn().Err(err).Msg("Initial menu load failed")
		}
	}()

	// Main service loop
	logger.Info().Dur("poll_interval", cfg.Poll.Interval).Msg("Starting main service loop")
	controller.Run(ctx, cfg.Poll.Interval)

	logger.Info().Msg("Context cancelled, initiating shutdown sequence")
	var result *multierror.Error

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("HTTP server shutdown: %w", err))
	} else {
		logger.Info().Msg("HTTP server shut down gracefully")
	}

	hub.Close()
	actionHandler.Wait()

	if err := db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("database close: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		logger.Error().Err(err).Msg("Shutdown completed with errors")
		return err
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}
