package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/adapter/connector"
	"go.ngs.io/medenv/internal/adapter/store/native"
	"go.ngs.io/medenv/internal/adapter/woa"
	"go.ngs.io/medenv/internal/registry"
	"go.ngs.io/medenv/internal/usecase"
)

var featuresWOA float64

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().Float64Var(&featuresWOA, "woa", 0,
		"list the World Ocean Atlas measures at this resolution (0.25, 1 or 5) instead")
}

// featuresCmd lists the queryable features.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the available features",
	Long: "List the Copernicus Marine features together with the Fetcher extras\n" +
		"(bathymetry and sea surface measures). With --woa, list the World Ocean Atlas measures.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if featuresWOA != 0 {
			atlas := woa.New(connector.New(connector.Options{
				Opener: native.NewOpener(),
				Locate: connector.DirLocator(cfg.WOADir),
			}), log, nil)
			names, err := atlas.Features(featuresWOA)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(names, "\n"))
			return nil
		}

		// Listing needs no login, so the registry is read directly.
		names := append([]string{usecase.FeatureBathymetry,
			usecase.FeatureSeaSurfaceSalinity, usecase.FeatureSeaSurfaceTemperature},
			registry.CMEMS().Names()...)
		sort.Strings(names)
		fmt.Fprintln(out, strings.Join(names, "\n"))
		return nil
	},
}
