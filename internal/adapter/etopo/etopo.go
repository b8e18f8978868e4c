// Package etopo provides bathymetry from an ETOPO NetCDF grid.
package etopo

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/interp"
	"go.ngs.io/medenv/internal/adapter/store"
	"go.ngs.io/medenv/internal/domain"
)

// Margin is the half-width in degrees of the subset loaded around a point query.
const Margin = 2.0

var (
	lonNames  = []string{"x", "lon", "longitude"}
	latNames  = []string{"y", "lat", "latitude"}
	dataNames = []string{"z", "elevation", "Band1"}
)

// Node is the grid node a value was taken from.
type Node struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Region is a rectangular extract of the grid for mapping.
// Depth and Gradient are indexed [latitude][longitude].
type Region struct {
	Longitudes []float64
	Latitudes  []float64
	Depth      [][]float64
	Gradient   [][]float64
}

// Store reads depths from an ETOPO grid. Depths are in metres, positive below
// sea level, so land has negative depth.
type Store struct {
	ds   store.Dataset
	path string
	log  zerolog.Logger

	lonVar, latVar, dataVar string
	lonFirst                bool
	lons, lats              []float64

	// Cached subset (loaded on demand).
	grid     *interp.Grid2D
	gradient [][]float64
	bounds   *gridBounds
	mu       sync.Mutex
}

// Open opens the ETOPO file at path and reads its coordinate axes.
func Open(ctx context.Context, opener store.Opener, path string, log zerolog.Logger) (*Store, error) {
	ds, err := opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ETOPO grid: %w", err)
	}
	s := &Store{ds: ds, path: path, log: log}
	if err := s.resolveVars(); err != nil {
		_ = ds.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) resolveVars() error {
	for _, name := range dataNames {
		dims, err := s.ds.Dims(name)
		if err != nil {
			continue
		}
		if len(dims) != 2 {
			return fmt.Errorf("expected 2D %s, got %dD", name, len(dims))
		}
		s.dataVar = name
		switch {
		case contains(lonNames, dims[1]) && contains(latNames, dims[0]):
			s.latVar, s.lonVar = dims[0], dims[1]
		case contains(lonNames, dims[0]) && contains(latNames, dims[1]):
			s.lonVar, s.latVar = dims[0], dims[1]
			s.lonFirst = true
		default:
			return fmt.Errorf("unexpected dimensions %v for %s", dims, name)
		}
		break
	}
	if s.dataVar == "" {
		return fmt.Errorf("data variable not found (tried: %v)", dataNames)
	}

	var err error
	if s.lons, err = s.ds.Coord(s.lonVar); err != nil {
		return fmt.Errorf("failed to read longitudes: %w", err)
	}
	if s.lats, err = s.ds.Coord(s.latVar); err != nil {
		return fmt.Errorf("failed to read latitudes: %w", err)
	}
	if len(s.lons) < 2 || len(s.lats) < 2 {
		return fmt.Errorf("grid too small: %d x %d", len(s.lons), len(s.lats))
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// GetValue returns the depth at the grid node nearest to (lon, lat).
func (s *Store) GetValue(lon, lat float64) (float64, Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(lon, lat); err != nil {
		return math.NaN(), Node{}, err
	}
	i, j := s.grid.Nearest(normalizeLonForAxis(s.grid.X, lon), lat)
	return s.grid.Values[i][j], Node{Longitude: s.grid.X[j], Latitude: s.grid.Y[i]}, nil
}

// GetDValue returns the depth gradient magnitude, in metres per degree, at the
// grid node nearest to (lon, lat).
func (s *Store) GetDValue(lon, lat float64) (float64, Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(lon, lat); err != nil {
		return math.NaN(), Node{}, err
	}
	if s.gradient == nil {
		s.gradient = s.grid.Gradient()
	}
	i, j := s.grid.Nearest(normalizeLonForAxis(s.grid.X, lon), lat)
	return s.gradient[i][j], Node{Longitude: s.grid.X[j], Latitude: s.grid.Y[i]}, nil
}

// Interpolate returns the bilinearly interpolated depth at (lon, lat).
func (s *Store) Interpolate(lon, lat float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(lon, lat); err != nil {
		return math.NaN(), err
	}
	return s.grid.InterpolateAt(normalizeLonForAxis(s.grid.X, lon), lat)
}

// Region extracts the grid nodes in [lonMin, lonMax] x [latMin, latMax].
func (s *Store) Region(lonMin, lonMax, latMin, latMax float64) (*Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.load(lonMin, lonMax, latMin, latMax)
	if err != nil {
		return nil, err
	}
	return &Region{
		Longitudes: grid.X,
		Latitudes:  grid.Y,
		Depth:      grid.Values,
		Gradient:   grid.Gradient(),
	}, nil
}

// MeanDepth returns the depth for point spans, or the mean depth over the
// box covered by range spans.
func (s *Store) MeanDepth(lon, lat domain.Span) (float64, error) {
	if lon.IsAny() || lat.IsAny() {
		return math.NaN(), fmt.Errorf("%w: bathymetry needs a longitude and a latitude", domain.ErrInvalidQuery)
	}
	if lon.IsPoint() && lat.IsPoint() {
		d, _, err := s.GetValue(lon.Value(), lat.Value())
		return d, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.load(lon.Min, lon.Max, lat.Min, lat.Max)
	if err != nil {
		return math.NaN(), err
	}
	return grid.Mean(), nil
}

// Close releases the underlying dataset.
func (s *Store) Close() error {
	return s.ds.Close()
}

// ensure loads a subset around (lon, lat) unless the cached one covers it.
func (s *Store) ensure(lon, lat float64) error {
	if s.grid != nil && s.bounds.contains(lat, lon) {
		return nil
	}
	grid, err := s.load(lon-Margin, lon+Margin, lat-Margin, lat+Margin)
	if err != nil {
		return err
	}
	s.grid = grid
	s.gradient = nil
	s.bounds = boundsFromGrid(grid)
	s.log.Debug().
		Float64("lon", lon).
		Float64("lat", lat).
		Int("nx", len(grid.X)).
		Int("ny", len(grid.Y)).
		Msg("loaded ETOPO subset")
	return nil
}

// load reads the subset of the grid covering the box, with at least two
// nodes per axis. Values are converted from elevation to depth.
func (s *Store) load(lonMin, lonMax, latMin, latMax float64) (*interp.Grid2D, error) {
	lonMin = normalizeLonForAxis(s.lons, lonMin)
	lonMax = normalizeLonForAxis(s.lons, lonMax)
	if lonMin > lonMax {
		lonMin, lonMax = lonMax, lonMin
	}

	lonStart, lonEnd := subsetIndices(s.lons, lonMin, lonMax)
	latStart, latEnd := subsetIndices(s.lats, latMin, latMax)
	nLon, nLat := lonEnd-lonStart, latEnd-latStart

	start := []int{latStart, lonStart}
	count := []int{nLat, nLon}
	if s.lonFirst {
		start = []int{lonStart, latStart}
		count = []int{nLon, nLat}
	}
	flat, err := s.ds.Read(s.dataVar, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read ETOPO subset: %w", err)
	}

	values := make([][]float64, nLat)
	for i := range values {
		values[i] = make([]float64, nLon)
		for j := range values[i] {
			var z float64
			if s.lonFirst {
				z = flat[j*nLat+i]
			} else {
				z = flat[i*nLon+j]
			}
			values[i][j] = -z
		}
	}

	grid := &interp.Grid2D{
		X:      s.lons[lonStart:lonEnd],
		Y:      s.lats[latStart:latEnd],
		Values: values,
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

// subsetIndices returns the half-open index range of axis covering [lo, hi],
// widened to at least two nodes.
func subsetIndices(axis []float64, lo, hi float64) (start, end int) {
	start = interp.NearestIndex(axis, lo)
	last := interp.NearestIndex(axis, hi)
	if start > last {
		start, last = last, start
	}
	start = clamp(start, 0, len(axis)-2)
	end = clamp(last+1, start+2, len(axis))
	return start, end
}

func clamp(value, minVal, maxVal int) int {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
