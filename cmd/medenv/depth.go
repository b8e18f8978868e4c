package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.ngs.io/medenv/internal/render"
)

var depthFlags struct {
	lon    float64
	lat    float64
	radius float64
	mapOut string
}

func init() {
	rootCmd.AddCommand(depthCmd)
	f := depthCmd.Flags()
	f.Float64Var(&depthFlags.lon, "lon", 0, "longitude")
	f.Float64Var(&depthFlags.lat, "lat", 0, "latitude")
	f.Float64Var(&depthFlags.radius, "radius", 1, "half width in degrees of the mapped region")
	f.StringVar(&depthFlags.mapOut, "map", "", "write <prefix>_depth.png and <prefix>_gradient.png around the point")
	_ = depthCmd.MarkFlagRequired("lon")
	_ = depthCmd.MarkFlagRequired("lat")
}

// depthCmd reads the ETOPO bathymetry at a point.
var depthCmd = &cobra.Command{
	Use:   "depth",
	Short: "Print the ETOPO depth and depth gradient at a point",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openETOPO(cmd.Context())
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("no ETOPO grid configured (set --etopo or ETOPO_PATH)")
		}
		defer func() { _ = store.Close() }()

		depth, node, err := store.GetValue(depthFlags.lon, depthFlags.lat)
		if err != nil {
			return err
		}
		grad, _, err := store.GetDValue(depthFlags.lon, depthFlags.lat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "node: (%g, %g)\n", node.Longitude, node.Latitude)
		fmt.Fprintf(out, "depth: %g m\n", depth)
		fmt.Fprintf(out, "gradient: %g m/deg\n", grad)

		if depthFlags.mapOut == "" {
			return nil
		}
		r := depthFlags.radius
		region, err := store.Region(depthFlags.lon-r, depthFlags.lon+r, depthFlags.lat-r, depthFlags.lat+r)
		if err != nil {
			return err
		}
		prefix := strings.TrimSuffix(depthFlags.mapOut, ".png")
		if err := render.MapFile(prefix+"_depth.png", region.Longitudes, region.Latitudes, region.Depth,
			render.Options{Title: "Depth (m)"}); err != nil {
			return err
		}
		if err := render.MapFile(prefix+"_gradient.png", region.Longitudes, region.Latitudes, region.Gradient,
			render.Options{Title: "Depth gradient (m/deg)"}); err != nil {
			return err
		}
		log.Info().Str("prefix", prefix).Msg("maps written")
		return nil
	},
}
