package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/adapter/auth"
	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/adapter/store/opendap"
	"go.ngs.io/medenv/internal/config"
	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/logger"
	"go.ngs.io/medenv/internal/usecase"
)

const version = "0.1.0"

var (
	v = config.New()

	// cfg and log are set before any subcommand runs.
	cfg config.Config
	log zerolog.Logger
)

// rootCmd is the main command.
var rootCmd = &cobra.Command{
	Use:   "medenv",
	Short: "Query Mediterranean environmental measures",
	Long: "medenv samples Copernicus Marine reanalyses, the ETOPO bathymetry and the\n" +
		"World Ocean Atlas climatologies at given times, locations and depths.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		log = logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Component: "cli"}, nil)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of medenv",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "medenv v%s\n", version)
	},
}

func init() {
	err := config.AddFlags(v, rootCmd.PersistentFlags(),
		"username", "password", "host-prefix", "dataset-url", "num-retries",
		"auth-url", "auth-client-id", "skip-login", "etopo", "woa-dir",
		"log-level", "log-console",
	)
	if err != nil {
		panic(err)
	}
	rootCmd.AddCommand(versionCmd)
}

// newCMEMS logs in and returns the CMEMS accessor. Missing credentials are
// asked on the terminal.
func newCMEMS(ctx context.Context) (*usecase.CMEMS, error) {
	return usecase.NewCMEMSFromConfig(ctx, cfg, auth.NewTerminalPrompter(), logger.Component(log, "cmems"), nil)
}

// openETOPO opens the configured ETOPO grid, or returns nil when none is configured.
func openETOPO(ctx context.Context) (*etopo.Store, error) {
	if cfg.ETOPOPath == "" {
		return nil, nil
	}
	return etopo.Open(ctx, opendap.NewOpener(), cfg.ETOPOPath, logger.Component(log, "etopo"))
}

// parseExtent reads a "min,max" map extent.
func parseExtent(name, s string) ([2]float64, error) {
	span, err := domain.ParseSpan(name, s)
	if err != nil {
		return [2]float64{}, err
	}
	if !span.IsRange() {
		return [2]float64{}, fmt.Errorf("%w: %s must be a min,max range", domain.ErrInvalidQuery, name)
	}
	if err := span.Validate(); err != nil {
		return [2]float64{}, err
	}
	return [2]float64{span.Min, span.Max}, nil
}

// outputFile opens path for writing, or returns the command output for "" and "-".
func outputFile(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if !strings.HasSuffix(strings.ToLower(path), ".csv") {
		return nil, nil, fmt.Errorf("output file %q must have a .csv extension", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
