// Package render draws sampled lon/lat grids as heat map images.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Options configure a map.
type Options struct {
	Title  string
	Width  vg.Length // Defaults to 8 inches.
	Height vg.Length // Defaults to 8 inches.
	Colors int       // Palette size, defaults to 255.
}

// grid adapts a [lat][lon] value matrix to plotter.GridXYZ.
type grid struct {
	lons, lats []float64
	values     [][]float64
	min, max   float64
}

func (g *grid) Dims() (c, r int)   { return len(g.lons), len(g.lats) }
func (g *grid) Z(c, r int) float64 { return g.values[r][c] }
func (g *grid) X(c int) float64    { return g.lons[c] }
func (g *grid) Y(r int) float64    { return g.lats[r] }
func (g *grid) Min() float64       { return g.min }
func (g *grid) Max() float64       { return g.max }

func newGrid(lons, lats []float64, values [][]float64) (*grid, error) {
	if len(lons) < 2 || len(lats) < 2 {
		return nil, fmt.Errorf("map needs at least 2x2 cells, got %dx%d", len(lons), len(lats))
	}
	if len(values) != len(lats) {
		return nil, fmt.Errorf("grid has %d rows, expected %d", len(values), len(lats))
	}
	g := &grid{lons: lons, lats: lats, values: values, min: math.Inf(1), max: math.Inf(-1)}
	for i, row := range values {
		if len(row) != len(lons) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(lons))
		}
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			g.min = math.Min(g.min, v)
			g.max = math.Max(g.max, v)
		}
	}
	if math.IsInf(g.min, 1) {
		return nil, fmt.Errorf("grid has no valid values")
	}
	if g.min == g.max {
		g.max = g.min + 1
	}
	return g, nil
}

// Map draws values (indexed [lat][lon]) as a PNG heat map. NaN cells, such
// as land, are left transparent.
func Map(w io.Writer, lons, lats []float64, values [][]float64, opts Options) error {
	g, err := newGrid(lons, lats, values)
	if err != nil {
		return err
	}
	if opts.Width == 0 {
		opts.Width = 8 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 8 * vg.Inch
	}
	if opts.Colors < 2 {
		opts.Colors = 255
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Longitude (°E)"
	p.Y.Label.Text = "Latitude (°N)"

	h := plotter.NewHeatMap(g, moreland.SmoothBlueRed().Palette(opts.Colors))
	p.Add(h)

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write map: %w", err)
	}
	return nil
}

// MapFile draws the map into a PNG file.
func MapFile(path string, lons, lats []float64, values [][]float64, opts Options) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("unsupported map format %q (expected .png)", ext)
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path chosen by the user.
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Map(f, lons, lats, values, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
