package domain

import (
	"math"
	"time"
)

// Row is one sampled point, indexed by (time, longitude, latitude, depth).
type Row struct {
	Time      time.Time
	Longitude float64
	Latitude  float64
	Depth     float64
	Value     float64 // NaN when the backend reports a missing value (e.g., land).
}

// Coordinates are the coordinate values actually used by a selection.
// Depth holds a single NaN for datasets without a depth axis.
type Coordinates struct {
	Time      []time.Time `json:"time"`
	Longitude []float64   `json:"longitude"`
	Latitude  []float64   `json:"latitude"`
	Depth     []float64   `json:"depth"`
}

// Result is the outcome of a query.
type Result struct {
	Feature   string
	Rows      []Row
	Reduction Reduction
	Value     float64 // Reduced scalar; only meaningful when Reduction is not ReduceNone.
	Selected  Coordinates
}

// Scalar returns the reduced value, or the single row value of an unreduced point query.
// It returns NaN when neither is available.
func (r *Result) Scalar() float64 {
	if r.Reduction != ReduceNone {
		return r.Value
	}
	if len(r.Rows) == 1 {
		return r.Rows[0].Value
	}
	return math.NaN()
}
