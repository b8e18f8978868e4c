package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/woa"
	"go.ngs.io/medenv/internal/domain"
)

// Sampler returns the value at one mesh node. Land is reported as NaN.
type Sampler func(ctx context.Context, lon, lat float64) (float64, error)

// Grid is a sampled lon/lat mesh. Values is indexed [latitude][longitude].
type Grid struct {
	Longitudes []float64
	Latitudes  []float64
	Values     [][]float64
}

// Arange returns lo, lo+step, ... up to but excluding hi.
func Arange(lo, hi, step float64) []float64 {
	if step <= 0 || hi <= lo {
		return nil
	}
	n := int(math.Ceil((hi - lo) / step))
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// SampleGrid walks the mesh [lonMin, lonMax) x [latMin, latMax) one node at a
// time, logging progress once per latitude row.
func SampleGrid(ctx context.Context, lonRange, latRange [2]float64, resolution float64, sample Sampler, log zerolog.Logger) (*Grid, error) {
	g := &Grid{
		Longitudes: Arange(lonRange[0], lonRange[1], resolution),
		Latitudes:  Arange(latRange[0], latRange[1], resolution),
	}
	if len(g.Longitudes) == 0 || len(g.Latitudes) == 0 {
		return nil, fmt.Errorf("%w: empty mesh for lon %v, lat %v at resolution %g",
			domain.ErrInvalidQuery, lonRange, latRange, resolution)
	}

	start := time.Now()
	g.Values = make([][]float64, len(g.Latitudes))
	for i, lat := range g.Latitudes {
		g.Values[i] = make([]float64, len(g.Longitudes))
		for j, lon := range g.Longitudes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := sample(ctx, lon, lat)
			if err != nil {
				return nil, fmt.Errorf("failed to sample (%g, %g): %w", lon, lat, err)
			}
			g.Values[i][j] = v
		}
		log.Info().
			Int("row", i+1).
			Int("rows", len(g.Latitudes)).
			Dur("elapsed", time.Since(start)).
			Msg("sampling grid")
	}
	return g, nil
}

// WOASampler samples a WOA measure at a depth, masking land.
func WOASampler(atlas *woa.Atlas, feature string, depth, resolution float64) Sampler {
	return func(ctx context.Context, lon, lat float64) (float64, error) {
		land, err := atlas.IsLand(ctx, lon, lat)
		if err != nil {
			return math.NaN(), err
		}
		if land {
			return math.NaN(), nil
		}
		return atlas.GetValue(ctx, domain.At(lon), domain.At(lat), domain.At(depth), feature, resolution)
	}
}

// FetcherSampler samples one Fetcher feature at a date and depth.
func FetcherSampler(f *Fetcher, feature string, date time.Time, depth float64) Sampler {
	return func(ctx context.Context, lon, lat float64) (float64, error) {
		values, _, err := f.GetValues(ctx, date, domain.At(lon), domain.At(lat), domain.At(depth))
		if err != nil {
			return math.NaN(), err
		}
		return values[feature], nil
	}
}
