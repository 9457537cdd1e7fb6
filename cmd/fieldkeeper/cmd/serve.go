package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/fieldkeeper/internal/core/api"
	"github.com/solatis/fieldkeeper/internal/core/auth"
	"github.com/solatis/fieldkeeper/internal/core/config"
	"github.com/solatis/fieldkeeper/internal/core/httpapi"
	"github.com/solatis/fieldkeeper/internal/core/server"
	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/core/store"
	"github.com/solatis/fieldkeeper/internal/core/telemetry"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP visibility APIs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host for both servers")
	serveCmd.Flags().Int("grpc-port", 50061, "gRPC server port")
	serveCmd.Flags().Int("http-port", 8081, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.GRPCHost, cfg.HTTPHost = host, host
	}
	if cmd.Flags().Changed("grpc-port") {
		cfg.GRPCPort, _ = cmd.Flags().GetInt("grpc-port")
	}
	if cmd.Flags().Changed("http-port") {
		cfg.HTTPPort, _ = cmd.Flags().GetInt("http-port")
	}

	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()
	if err := requireMigrated(ctx, database); err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set FK_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, queries)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}

	engine := visibility.NewEngine(logger)
	st := store.New(queries, engine, logger, store.Limits{
		MaxFieldsPerEntity: cfg.MaxFieldsPerEntity,
		MaxBatchSize:       cfg.MaxBatchSize,
	})
	svc := service.New(st, engine, tel, logger)

	grpcService, err := api.NewVisibilityService(svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	grpcServer, err := server.NewGRPCServer(cfg, grpcService, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create grpc server: %w", err)
	}
	httpServer, err := server.NewHTTPServer(cfg, httpapi.New(svc, authenticator, logger, cfg.RequestTimeout), logger)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("starting fieldkeeper", "version", Version, "grpc_addr", cfg.GRPCAddr(), "http_addr", cfg.HTTPAddr())
	errChan := make(chan error, 2)
	go func() { errChan <- grpcServer.Start(ctx) }()
	go func() { errChan <- httpServer.Start(ctx) }()

	var serveErr error
	select {
	case serveErr = <-errChan:
		logger.Error("server stopped", "error", serveErr)
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return errors.Join(
		serveErr,
		grpcServer.Shutdown(shutdownCtx),
		httpServer.Shutdown(shutdownCtx),
		tel.Shutdown(shutdownCtx),
	)
}
