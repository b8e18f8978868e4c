package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/adapter/connector"
	"go.ngs.io/medenv/internal/adapter/store/native"
	"go.ngs.io/medenv/internal/adapter/woa"
	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/logger"
	"go.ngs.io/medenv/internal/registry"
	"go.ngs.io/medenv/internal/render"
	"go.ngs.io/medenv/internal/usecase"
)

// mapFlags are shared by the map subcommands.
type mapFlags struct {
	feature string
	lon     string
	lat     string
	depth   float64
	step    float64
	output  string
}

func (m *mapFlags) register(cmd *cobra.Command, defaultStep float64) {
	f := cmd.Flags()
	f.StringVar(&m.feature, "feature", "temperature", "feature name")
	f.StringVar(&m.lon, "lon", "-6,36.5", "longitude extent min,max")
	f.StringVar(&m.lat, "lat", "30,46", "latitude extent min,max")
	f.Float64Var(&m.depth, "depth", 0, "depth in metres")
	f.Float64Var(&m.step, "step", defaultStep, "mesh step in degrees")
	f.StringVarP(&m.output, "output", "o", "map.png", "PNG output file")
}

func (m *mapFlags) extents() (lon, lat [2]float64, err error) {
	if lon, err = parseExtent("lon", m.lon); err != nil {
		return
	}
	lat, err = parseExtent("lat", m.lat)
	return
}

var (
	woaMap struct {
		mapFlags
		resolution float64
	}
	cmemsMap struct {
		mapFlags
		date string
	}
)

func init() {
	rootCmd.AddCommand(woaMapCmd, cmemsMapCmd)

	woaMap.register(woaMapCmd, 1)
	woaMapCmd.Flags().Float64Var(&woaMap.resolution, "resolution", registry.DefaultWOAResolution,
		"World Ocean Atlas grid resolution (0.25, 1 or 5)")

	cmemsMap.register(cmemsMapCmd, 0.5)
	cmemsMapCmd.Flags().StringVar(&cmemsMap.date, "date", "", "date (YYYY-MM-DD or RFC3339)")
	_ = cmemsMapCmd.MarkFlagRequired("date")
}

// woaMapCmd maps a World Ocean Atlas measure.
var woaMapCmd = &cobra.Command{
	Use:   "woa-map",
	Short: "Render a World Ocean Atlas measure as a map",
	Long: "Sample a World Ocean Atlas climatology on a lon/lat mesh, masking land,\n" +
		"and render it as a PNG heat map. Files are read from --woa-dir.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.WOADir == "" {
			return fmt.Errorf("no World Ocean Atlas directory configured (set --woa-dir or WOA_DIR)")
		}
		lon, lat, err := woaMap.extents()
		if err != nil {
			return err
		}

		conn := connector.New(connector.Options{
			Opener:      native.NewOpener(),
			Locate:      connector.DirLocator(cfg.WOADir),
			MaxAttempts: 1,
			Logger:      logger.Component(log, "woa"),
		})
		atlas := woa.New(conn, logger.Component(log, "woa"), nil)
		defer func() { _ = atlas.Close() }()

		sampler := usecase.WOASampler(atlas, woaMap.feature, woaMap.depth, woaMap.resolution)
		g, err := usecase.SampleGrid(cmd.Context(), lon, lat, woaMap.step, sampler, log)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("WOA18 %s at %g m", woaMap.feature, woaMap.depth)
		return writeMap(woaMap.output, g, title)
	},
}

// cmemsMapCmd maps a Copernicus Marine feature on a date.
var cmemsMapCmd = &cobra.Command{
	Use:   "cmems-map",
	Short: "Render a Copernicus Marine feature as a map",
	Long: "Sample a feature point by point on a lon/lat mesh at one date and depth,\n" +
		"and render it as a PNG heat map. Any fetch feature is accepted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date, err := domain.ParseDate(cmemsMap.date)
		if err != nil {
			return err
		}
		lon, lat, err := cmemsMap.extents()
		if err != nil {
			return err
		}

		cmems, err := newCMEMS(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = cmems.Close() }()

		var bathy usecase.Bathymetry
		if cmemsMap.feature == usecase.FeatureBathymetry {
			store, err := openETOPO(ctx)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
				bathy = store
			}
		}

		fetcher, err := usecase.NewFetcher([]string{cmemsMap.feature}, cmems, bathy, log)
		if err != nil {
			return err
		}
		sampler := usecase.FetcherSampler(fetcher, cmemsMap.feature, date, cmemsMap.depth)
		g, err := usecase.SampleGrid(ctx, lon, lat, cmemsMap.step, sampler, log)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s on %s at %g m", cmemsMap.feature, date.Format("2006-01-02"), cmemsMap.depth)
		return writeMap(cmemsMap.output, g, title)
	},
}

func writeMap(path string, g *usecase.Grid, title string) error {
	if err := render.MapFile(path, g.Longitudes, g.Latitudes, g.Values, render.Options{Title: title}); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("map written")
	return nil
}
