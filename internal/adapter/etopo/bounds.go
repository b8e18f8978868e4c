package etopo

import (
	"math"

	"go.ngs.io/medenv/internal/adapter/interp"
)

type gridBounds struct {
	minLat, maxLat float64
	minLon, maxLon float64
	lonWrap360     bool
}

func (b *gridBounds) contains(lat, lon float64) bool {
	if b == nil {
		return false
	}
	if b.lonWrap360 {
		lon = normalizeLon360(lon)
	}
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

func boundsFromGrid(grid *interp.Grid2D) *gridBounds {
	if grid == nil || len(grid.X) == 0 || len(grid.Y) == 0 {
		return nil
	}
	return &gridBounds{
		minLat:     grid.Y[0],
		maxLat:     grid.Y[len(grid.Y)-1],
		minLon:     grid.X[0],
		maxLon:     grid.X[len(grid.X)-1],
		lonWrap360: lonAxisRequiresWrap(grid.X),
	}
}

// lonAxisRequiresWrap reports whether the axis uses [0, 360) longitudes.
func lonAxisRequiresWrap(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	return lons[0] >= 0 && lons[len(lons)-1] > 180
}

func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

func normalizeLonForAxis(lons []float64, lon float64) float64 {
	if lonAxisRequiresWrap(lons) {
		return normalizeLon360(lon)
	}
	return lon
}
