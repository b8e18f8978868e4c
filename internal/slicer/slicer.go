// Package slicer selects coordinates from a gridded dataset and reshapes the
// selection into uniform rows.
package slicer

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"go.ngs.io/medenv/internal/adapter/store"
	"go.ngs.io/medenv/internal/domain"
)

type role int

const (
	roleTime role = iota
	roleLon
	roleLat
	roleDepth
)

func (r role) String() string {
	switch r {
	case roleTime:
		return "time"
	case roleLon:
		return "longitude"
	case roleLat:
		return "latitude"
	default:
		return "depth"
	}
}

// axis is one dimension of the sliced variable.
type axis struct {
	name   string
	role   role
	coords []float64   // Time axes hold Unix seconds.
	times  []time.Time // Only set for the time axis.
	sel    []int       // Selected indices in dataset order.
}

func (a *axis) selectedValues() []float64 {
	out := make([]float64, len(a.sel))
	for i, idx := range a.sel {
		out[i] = a.coords[idx]
	}
	return out
}

// Slice reads the part of feature's variable selected by q and returns one
// row per selected (time, longitude, latitude, depth) combination, in the
// variable's dimension order.
//
// Depth selection follows f.HasDepth. Features without depth ignore q.Depth
// for selection (a depth dimension, if any, is kept whole); their rows report
// the requested depth and their selected depth is a single NaN. A feature with
// depth served by a variable without a depth dimension is an error.
func Slice(ds store.Dataset, f domain.Feature, q domain.Query) (*domain.Result, error) {
	dims, err := ds.Dims(f.Variable)
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", f.Variable, err)
	}

	axes, err := resolveAxes(ds, f, dims)
	if err != nil {
		return nil, err
	}

	hasDepth := f.HasDepth
	for _, a := range axes {
		var span domain.Span
		switch a.role {
		case roleTime:
			span = q.Time.Seconds()
		case roleLon:
			span = q.Longitude
		case roleLat:
			span = q.Latitude
		case roleDepth:
			if hasDepth {
				span = q.Depth
			}
		}
		a.sel = selectIndices(a.coords, span)
	}

	res := &domain.Result{
		Feature:   f.Name,
		Reduction: q.Reduction,
		Value:     math.NaN(),
	}
	res.Selected = selected(axes, hasDepth)

	for _, a := range axes {
		if len(a.sel) == 0 {
			// Nothing in range on this axis; an empty result.
			return res, nil
		}
	}

	start := make([]int, len(axes))
	count := make([]int, len(axes))
	for i, a := range axes {
		lo, hi := bounds(a.sel)
		start[i] = lo
		count[i] = hi - lo + 1
	}
	data, err := ds.Read(f.Variable, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Variable, err)
	}

	res.Rows = rows(axes, start, count, data, q, hasDepth)

	if q.Reduction == domain.ReduceMean {
		values := make([]float64, len(res.Rows))
		for i, r := range res.Rows {
			values[i] = r.Value
		}
		res.Value = Mean(values)
	}
	return res, nil
}

func resolveAxes(ds store.Dataset, f domain.Feature, dims []string) ([]*axis, error) {
	lonKey, latKey := f.SliceMode.Keys()
	axes := make([]*axis, 0, len(dims))
	seen := make(map[role]bool, len(dims))
	for _, dim := range dims {
		a := &axis{name: dim}
		switch dim {
		case "time":
			a.role = roleTime
		case "depth":
			a.role = roleDepth
		case lonKey:
			a.role = roleLon
		case latKey:
			a.role = roleLat
		default:
			return nil, fmt.Errorf("unexpected dimension %q of %s for slice mode %s", dim, f.Variable, f.SliceMode)
		}
		if seen[a.role] {
			return nil, fmt.Errorf("duplicate %s dimension %q of %s", a.role, dim, f.Variable)
		}
		seen[a.role] = true

		if a.role == roleTime {
			ts, err := ds.Times(dim)
			if err != nil {
				return nil, fmt.Errorf("failed to read time coordinate: %w", err)
			}
			a.times = ts
			a.coords = make([]float64, len(ts))
			for i, t := range ts {
				a.coords[i] = float64(t.UnixNano()) / 1e9
			}
		} else {
			c, err := ds.Coord(dim)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s coordinate: %w", a.role, err)
			}
			a.coords = c
		}
		axes = append(axes, a)
	}
	if !seen[roleLon] || !seen[roleLat] {
		return nil, fmt.Errorf("%s has no %s/%s dimensions", f.Variable, lonKey, latKey)
	}
	if f.HasDepth && !seen[roleDepth] {
		return nil, fmt.Errorf("feature %s has depth but %s has no depth dimension", f.Name, f.Variable)
	}
	return axes, nil
}

// selectIndices deduplicates coords, keeping the first occurrence of each
// value, and applies span: every index in a range, the nearest index for a
// point (ties go to the first), every index when unconstrained.
func selectIndices(coords []float64, span domain.Span) []int {
	unique := Dedup(coords)
	switch {
	case span.IsPoint():
		if len(unique) == 0 {
			return nil
		}
		return []int{nearest(coords, unique, span.Value())}
	case span.IsRange():
		var out []int
		for _, idx := range unique {
			if span.Contains(coords[idx]) {
				out = append(out, idx)
			}
		}
		return out
	default:
		return unique
	}
}

// Dedup returns the indices of the first occurrence of every distinct value.
func Dedup(coords []float64) []int {
	seen := make(map[float64]bool, len(coords))
	out := make([]int, 0, len(coords))
	for i, c := range coords {
		if math.IsNaN(c) || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, i)
	}
	return out
}

func nearest(coords []float64, candidates []int, target float64) int {
	best := candidates[0]
	bestDist := math.Abs(coords[best] - target)
	for _, idx := range candidates[1:] {
		if d := math.Abs(coords[idx] - target); d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

func bounds(idx []int) (lo, hi int) {
	lo, hi = idx[0], idx[0]
	for _, i := range idx[1:] {
		if i < lo {
			lo = i
		}
		if i > hi {
			hi = i
		}
	}
	return lo, hi
}

func selected(axes []*axis, hasDepth bool) domain.Coordinates {
	var c domain.Coordinates
	for _, a := range axes {
		switch a.role {
		case roleTime:
			c.Time = make([]time.Time, len(a.sel))
			for i, idx := range a.sel {
				c.Time[i] = a.times[idx]
			}
		case roleLon:
			c.Longitude = a.selectedValues()
		case roleLat:
			c.Latitude = a.selectedValues()
		case roleDepth:
			if hasDepth {
				c.Depth = a.selectedValues()
			}
		}
	}
	if !hasDepth {
		c.Depth = []float64{math.NaN()}
	}
	return c
}

// rows walks every combination of selected indices in dimension order and
// looks each one up in the hyperslab read at start with shape count.
func rows(axes []*axis, start, count []int, data []float64, q domain.Query, hasDepth bool) []domain.Row {
	total := 1
	for _, a := range axes {
		total *= len(a.sel)
	}
	out := make([]domain.Row, 0, total)

	cursor := make([]int, len(axes))
	for n := 0; n < total; n++ {
		// Without depth the row carries the requested depth.
		row := domain.Row{Depth: q.Depth.Value(), Time: q.Time.Start}
		offset := 0
		for i, a := range axes {
			idx := a.sel[cursor[i]]
			offset = offset*count[i] + (idx - start[i])
			v := a.coords[idx]
			switch a.role {
			case roleTime:
				row.Time = a.times[idx]
			case roleLon:
				row.Longitude = v
			case roleLat:
				row.Latitude = v
			case roleDepth:
				if hasDepth {
					row.Depth = v
				}
			}
		}
		row.Value = data[offset]
		out = append(out, row)

		for i := len(axes) - 1; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < len(axes[i].sel) {
				break
			}
			cursor[i] = 0
		}
	}
	return out
}

// Mean averages the non-NaN values. It returns NaN when there are none.
func Mean(values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}
