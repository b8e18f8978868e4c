// Package main provides the medenv query API HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/adapter/store/opendap"
	"go.ngs.io/medenv/internal/config"
	httpHandler "go.ngs.io/medenv/internal/http"
	"go.ngs.io/medenv/internal/logger"
	"go.ngs.io/medenv/internal/metrics"
	"go.ngs.io/medenv/internal/usecase"
)

const version = "0.1.0"

// serverSettings are the configuration keys the server accepts as flags.
var serverSettings = []string{
	"username", "password", "host-prefix", "dataset-url", "num-retries",
	"auth-url", "auth-client-id", "skip-login", "etopo", "port",
	"log-level", "log-console", "cors-allowed-origins",
}

func main() {
	v := config.New()
	fs := pflag.NewFlagSet("medenv-server", pflag.ExitOnError)
	showHelp := fs.Bool("help", false, "Show usage information")
	showVersion := fs.Bool("version", false, "Show version information")
	if err := config.AddFlags(v, fs, serverSettings...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	_ = fs.Parse(os.Args[1:])

	if *showHelp {
		printUsage(fs)
		return
	}
	if *showVersion {
		fmt.Printf("medenv-server version %s\n", version)
		return
	}

	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Component: "server"}, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	provider := metrics.Init()
	m := metrics.New(provider.Registerer())

	log.Info().Str("host_prefix", cfg.HostPrefix).Int("num_retries", cfg.NumRetries).Msg("starting medenv server")
	// No prompter: the server needs its credentials in the environment.
	cmems, err := usecase.NewCMEMSFromConfig(ctx, cfg, nil, logger.Component(log, "cmems"), m)
	if err != nil {
		return fmt.Errorf("failed to initialize CMEMS accessor: %w", err)
	}
	defer func() { _ = cmems.Close() }()

	routerCfg := httpHandler.RouterConfig{
		Querier:        cmems,
		Metrics:        provider.Handler(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger.Component(log, "http"),
	}
	if cfg.ETOPOPath != "" {
		bathy, err := etopo.Open(ctx, opendap.NewOpener(), cfg.ETOPOPath, logger.Component(log, "etopo"))
		if err != nil {
			return fmt.Errorf("failed to open ETOPO grid: %w", err)
		}
		defer func() { _ = bathy.Close() }()
		routerCfg.Bathymetry = bathy
		log.Info().Str("path", cfg.ETOPOPath).Msg("bathymetry store initialized")
	} else {
		log.Info().Msg("bathymetry store disabled (no ETOPO path configured)")
	}

	router := httpHandler.SetupRouter(routerCfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// printUsage prints usage information.
func printUsage(fs *pflag.FlagSet) {
	fmt.Printf("medenv server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  medenv-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Print(fs.FlagUsages())
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /metrics                   Prometheus metrics")
	fmt.Println("  GET /v1/features               List CMEMS features")
	fmt.Println("  GET /v1/values                 Query a feature (feature, date, lon, lat, depth, reduction)")
	fmt.Println("  GET /v1/bathymetry             ETOPO depth at a point (if configured)")
	fmt.Println()
}
