package main

import (
	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/export"
	"go.ngs.io/medenv/internal/usecase"
)

var fetchFlags struct {
	features []string
	date     string
	lon      string
	lat      string
	depth    string
	output   string
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	f := fetchCmd.Flags()
	f.StringSliceVar(&fetchFlags.features, "features", nil, "comma-separated feature names")
	f.StringVar(&fetchFlags.date, "date", "", "date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&fetchFlags.lon, "lon", "", "longitude, or min,max")
	f.StringVar(&fetchFlags.lat, "lat", "", "latitude, or min,max")
	f.StringVar(&fetchFlags.depth, "depth", "0", "depth in metres, or min,max")
	f.StringVarP(&fetchFlags.output, "output", "o", "", "CSV output file (default: stdout)")
	_ = fetchCmd.MarkFlagRequired("features")
	_ = fetchCmd.MarkFlagRequired("date")
	_ = fetchCmd.MarkFlagRequired("lon")
	_ = fetchCmd.MarkFlagRequired("lat")
}

// fetchCmd samples many features at one place and date.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the mean of several features at one location",
	Long: "Fetch the mean of each requested feature over the location and depth selection.\n" +
		"Besides the Copernicus Marine features, bathymetry (needs --etopo),\n" +
		"sea-surface-temperature and sea-surface-salinity are accepted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date, err := domain.ParseDate(fetchFlags.date)
		if err != nil {
			return err
		}
		lon, err := domain.ParseSpan("lon", fetchFlags.lon)
		if err != nil {
			return err
		}
		lat, err := domain.ParseSpan("lat", fetchFlags.lat)
		if err != nil {
			return err
		}
		depth, err := domain.ParseSpan("depth", fetchFlags.depth)
		if err != nil {
			return err
		}

		cmems, err := newCMEMS(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = cmems.Close() }()

		var bathy usecase.Bathymetry
		store, err := openETOPO(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer func() { _ = store.Close() }()
			bathy = store
		}

		fetcher, err := usecase.NewFetcher(fetchFlags.features, cmems, bathy, log)
		if err != nil {
			return err
		}
		values, _, err := fetcher.GetValues(ctx, date, lon, lat, depth)
		if err != nil {
			return err
		}

		w, closeFn, err := outputFile(cmd, fetchFlags.output)
		if err != nil {
			return err
		}
		if err := export.WriteValues(w, values); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}
