package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/hasher"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/secure"
	"github.com/team-ns/launcher/internal/server"
	"github.com/team-ns/launcher/pkg/config"
	"github.com/team-ns/launcher/pkg/metrics"
	"github.com/team-ns/launcher/pkg/profile"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the launch server",
	Long: `Start the launch server with the specified configuration.

On startup the static content tree is hashed into manifests. Send SIGHUP to
re-run all passes at runtime after changing content on disk.

Examples:
  # Start with the default config location
  launchserver start

  # Start with a custom config file
  launchserver start --config /etc/launchserver/config.yaml

  # Override settings with environment variables
  LAUNCHSERVER_LOGGING_LEVEL=DEBUG launchserver start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("launch server starting", "version", Version)

	keys, err := secure.LoadOrCreateKeys(cfg.SecureDir)
	if err != nil {
		return fmt.Errorf("load envelope keys: %w", err)
	}
	fmt.Printf("Server public key (embed in launcher config): %s\n", secure.EncodeKey(keys.Public))

	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("metrics enabled")
	}

	catalog := profile.NewCatalog()
	hashSvc := hasher.New(cfg.StaticDir, cfg.FileServerBaseURL, catalog)
	if err := hashSvc.EnsureLayout(); err != nil {
		return err
	}

	provider, err := auth.New(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("create auth provider: %w", err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Error("close auth provider", logger.Err(err))
		}
	}()

	srv := server.New(cfg, catalog, hashSvc, provider, keys)

	if err := catalog.Refresh(filepath.Join(cfg.StaticDir, hasher.ProfilesDir)); err != nil {
		return err
	}
	if err := hashSvc.Rehash(ctx); err != nil {
		return fmt.Errorf("initial rehash: %w", err)
	}

	// SIGHUP re-runs every pass; content added on disk becomes visible
	// without a restart.
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)
	go func() {
		for range hupChan {
			logger.Info("SIGHUP received, rehashing content tree")
			if err := srv.Rehash(ctx); err != nil {
				logger.Error("rehash failed", logger.Err(err))
			}
		}
	}()
	defer signal.Stop(hupChan)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			return err
		}
		logger.Info("Server stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return err
		}
		logger.Info("Server stopped")
	}
	return nil
}
