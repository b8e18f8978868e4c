package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/export"
)

var valueFlags struct {
	feature   string
	date      string
	lon       string
	lat       string
	depth     string
	reduction string
	output    string
}

func init() {
	rootCmd.AddCommand(valueCmd)
	f := valueCmd.Flags()
	f.StringVar(&valueFlags.feature, "feature", "", "feature name (see medenv features)")
	f.StringVar(&valueFlags.date, "date", "", "date (YYYY-MM-DD or RFC3339), or start,end")
	f.StringVar(&valueFlags.lon, "lon", "", "longitude, or min,max")
	f.StringVar(&valueFlags.lat, "lat", "", "latitude, or min,max")
	f.StringVar(&valueFlags.depth, "depth", "0", "depth in metres, or min,max")
	f.StringVar(&valueFlags.reduction, "reduction", "", "reduction applied to the selection (mean)")
	f.StringVarP(&valueFlags.output, "output", "o", "", "CSV output file (default: stdout)")
	_ = valueCmd.MarkFlagRequired("feature")
	_ = valueCmd.MarkFlagRequired("date")
	_ = valueCmd.MarkFlagRequired("lon")
	_ = valueCmd.MarkFlagRequired("lat")
}

// valueCmd runs one Copernicus Marine query.
var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Query one Copernicus Marine feature",
	Long: "Query one feature at a point or over ranges. The selected rows are written\n" +
		"as CSV; with --reduction mean only the mean is printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := valueQuery()
		if err != nil {
			return err
		}

		cmems, err := newCMEMS(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = cmems.Close() }()

		res, err := cmems.GetValue(cmd.Context(), q)
		if err != nil {
			return err
		}

		if q.Reduction != domain.ReduceNone {
			v := res.Scalar()
			if math.IsNaN(v) {
				fmt.Fprintln(cmd.OutOrStdout(), "NaN")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", v)
			return nil
		}

		w, closeFn, err := outputFile(cmd, valueFlags.output)
		if err != nil {
			return err
		}
		if err := export.WriteRows(w, res); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

func valueQuery() (domain.Query, error) {
	q := domain.Query{Feature: valueFlags.feature}
	var err error
	if q.Time, err = domain.ParseTimeSpan(valueFlags.date); err != nil {
		return q, err
	}
	if q.Longitude, err = domain.ParseSpan("lon", valueFlags.lon); err != nil {
		return q, err
	}
	if q.Latitude, err = domain.ParseSpan("lat", valueFlags.lat); err != nil {
		return q, err
	}
	if q.Depth, err = domain.ParseSpan("depth", valueFlags.depth); err != nil {
		return q, err
	}
	if q.Reduction, err = domain.ParseReduction(valueFlags.reduction); err != nil {
		return q, err
	}
	return q, q.Validate()
}
