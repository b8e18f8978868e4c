package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/domain"
)

// Feature names served by the Fetcher on top of the CMEMS table.
const (
	FeatureBathymetry            = "bathymetry"
	FeatureSeaSurfaceTemperature = "sea-surface-temperature"
	FeatureSeaSurfaceSalinity    = "sea-surface-salinity"
)

// surfaceFeatures map sea surface measures to the CMEMS feature sampled at depth 0.
var surfaceFeatures = map[string]string{
	FeatureSeaSurfaceTemperature: "temperature",
	FeatureSeaSurfaceSalinity:    "salinity",
}

// Bathymetry is the depth source of the Fetcher.
type Bathymetry interface {
	GetValue(lon, lat float64) (float64, etopo.Node, error)
	MeanDepth(lon, lat domain.Span) (float64, error)
}

// Fetcher samples a fixed list of features at one location and date.
type Fetcher struct {
	features []string
	cmems    *CMEMS
	bathy    Bathymetry
	log      zerolog.Logger
}

// AvailableFeatures lists every name a Fetcher accepts, sorted.
func AvailableFeatures(cmems *CMEMS) []string {
	names := append([]string{FeatureBathymetry}, cmems.Features()...)
	for name := range surfaceFeatures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFetcher validates the feature names. bathy may be nil when bathymetry is
// not requested, and cmems may be nil when only bathymetry is.
func NewFetcher(features []string, cmems *CMEMS, bathy Bathymetry, log zerolog.Logger) (*Fetcher, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no feature requested", domain.ErrInvalidQuery)
	}
	for _, name := range features {
		switch {
		case name == FeatureBathymetry:
			if bathy == nil {
				return nil, fmt.Errorf("bathymetry requested but no ETOPO grid is configured")
			}
		case cmems == nil:
			return nil, fmt.Errorf("%s requested but no CMEMS accessor is configured", name)
		case surfaceFeatures[name] != "":
		default:
			if _, err := cmems.Lookup(name); err != nil {
				return nil, err
			}
		}
	}
	return &Fetcher{
		features: append([]string(nil), features...),
		cmems:    cmems,
		bathy:    bathy,
		log:      log,
	}, nil
}

// Features returns the requested feature names.
func (f *Fetcher) Features() []string {
	return append([]string(nil), f.features...)
}

// GetValues queries every feature in order, each reduced to its mean. It
// returns the values and the coordinates each value was computed from.
func (f *Fetcher) GetValues(ctx context.Context, date time.Time, lon, lat, depth domain.Span) (map[string]float64, map[string]domain.Coordinates, error) {
	values := make(map[string]float64, len(f.features))
	selected := make(map[string]domain.Coordinates, len(f.features))

	for _, name := range f.features {
		var (
			v   float64
			c   domain.Coordinates
			err error
		)
		switch {
		case name == FeatureBathymetry:
			v, c, err = f.bathymetry(lon, lat)
		case surfaceFeatures[name] != "":
			v, c, err = f.cmemsValue(ctx, surfaceFeatures[name], date, lon, lat, domain.At(0))
		default:
			v, c, err = f.cmemsValue(ctx, name, date, lon, lat, depth)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch %s: %w", name, err)
		}
		values[name] = v
		selected[name] = c
		f.log.Debug().Str("feature", name).Float64("value", v).Msg("fetched")
	}
	return values, selected, nil
}

func (f *Fetcher) cmemsValue(ctx context.Context, name string, date time.Time, lon, lat, depth domain.Span) (float64, domain.Coordinates, error) {
	res, err := f.cmems.GetValue(ctx, domain.Query{
		Feature:   name,
		Time:      domain.On(date),
		Longitude: lon,
		Latitude:  lat,
		Depth:     depth,
		Reduction: domain.ReduceMean,
	})
	if err != nil {
		return math.NaN(), domain.Coordinates{}, err
	}
	return res.Value, res.Selected, nil
}

func (f *Fetcher) bathymetry(lon, lat domain.Span) (float64, domain.Coordinates, error) {
	c := domain.Coordinates{Depth: []float64{math.NaN()}}
	if lon.IsPoint() && lat.IsPoint() {
		d, node, err := f.bathy.GetValue(lon.Value(), lat.Value())
		if err != nil {
			return math.NaN(), c, err
		}
		c.Longitude = []float64{node.Longitude}
		c.Latitude = []float64{node.Latitude}
		return d, c, nil
	}
	d, err := f.bathy.MeanDepth(lon, lat)
	if err != nil {
		return math.NaN(), c, err
	}
	c.Longitude = []float64{lon.Min, lon.Max}
	c.Latitude = []float64{lat.Min, lat.Max}
	return d, c, nil
}
