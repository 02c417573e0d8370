package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/lineserv/internal/logger"
	"github.com/marmos91/lineserv/pkg/auth"
	"github.com/marmos91/lineserv/pkg/config"
	"github.com/marmos91/lineserv/pkg/metrics"
	promexp "github.com/marmos91/lineserv/pkg/metrics/prometheus"
	"github.com/marmos91/lineserv/pkg/server"
)

var (
	startUsersFile string
	startPort      int
	startBind      string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lineserv server",
	Long: `Start the lineserv server with the specified configuration.

The server needs a users file: one tab-separated "username<TAB>password"
pair per line. The path comes from the configuration file or the --users
flag; the server refuses to start without it.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/lineserv/config.yaml.

Examples:
  # Start with a users file on the default port
  lineserv start --users users.txt

  # Start with custom config file
  lineserv start --config /etc/lineserv/config.yaml

  # Start with environment variable overrides
  LINESERV_LOGGING_LEVEL=DEBUG lineserv start --users users.txt`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startUsersFile, "users", "", "Path to the users file (overrides config)")
	startCmd.Flags().IntVar(&startPort, "port", 0, "TCP port to listen on (overrides config)")
	startCmd.Flags().StringVar(&startBind, "bind", "", "Address to bind to (overrides config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	// Flags win over config file and environment.
	if startUsersFile != "" {
		cfg.Auth.UsersFile = startUsersFile
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = startPort
	}
	if startBind != "" {
		cfg.Server.BindAddress = startBind
	}

	if cfg.Auth.UsersFile == "" {
		return fmt.Errorf("no users file configured; set auth.users_file or pass --users")
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	policy, err := server.ParsePolicy(cfg.Server.LoginPolicy)
	if err != nil {
		return err
	}

	// Load credentials up front so a bad users file fails the start,
	// not the first login.
	store, err := auth.Load(cfg.Auth.UsersFile)
	if err != nil {
		return fmt.Errorf("failed to load users file: %w", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Users loaded", "path", cfg.Auth.UsersFile, "count", store.Len())

	// Initialize metrics (if enabled)
	var srvMetrics metrics.ServerMetrics
	if cfg.Metrics.Enabled {
		m, reg := promexp.NewServerMetrics()
		srvMetrics = m
		exporter := promexp.NewExporter(reg, cfg.Metrics.Port)
		go func() {
			if err := exporter.Serve(ctx); err != nil {
				logger.Error("Metrics exporter error", "error", err)
			}
		}()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	srv := server.New(server.Config{
		BindAddress:     cfg.Server.BindAddress,
		Port:            cfg.Server.Port,
		MaxConnections:  cfg.Server.MaxConnections,
		MaxLineLength:   cfg.Server.MaxLineLength,
		Policy:          policy,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, store, srvMetrics)

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}

	return nil
}
