// Package memory provides an in-memory Dataset, used as a stub backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.ngs.io/medenv/internal/adapter/store"
)

// Variable is a gridded variable held in memory.
type Variable struct {
	Dims   []string
	Values []float64 // Row-major, already unpacked; NaN marks missing values.
}

// Dataset is an in-memory store.Dataset.
type Dataset struct {
	Coords     map[string][]float64
	TimeCoords map[string][]time.Time
	Vars       map[string]Variable
	closed     bool
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Coords:     make(map[string][]float64),
		TimeCoords: make(map[string][]time.Time),
		Vars:       make(map[string]Variable),
	}
}

// Dims returns the dimension names of a variable.
func (d *Dataset) Dims(variable string) ([]string, error) {
	v, ok := d.Vars[variable]
	if !ok {
		return nil, fmt.Errorf("variable %s not found", variable)
	}
	return v.Dims, nil
}

// Coord returns a coordinate. Time coordinates are returned as Unix seconds.
func (d *Dataset) Coord(name string) ([]float64, error) {
	if c, ok := d.Coords[name]; ok {
		return c, nil
	}
	if ts, ok := d.TimeCoords[name]; ok {
		out := make([]float64, len(ts))
		for i, t := range ts {
			out[i] = float64(t.Unix())
		}
		return out, nil
	}
	return nil, fmt.Errorf("coordinate %s not found", name)
}

// Times returns a time coordinate.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	ts, ok := d.TimeCoords[name]
	if !ok {
		return nil, fmt.Errorf("time coordinate %s not found", name)
	}
	return ts, nil
}

func (d *Dataset) shape(v Variable) ([]int, error) {
	shape := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		if c, ok := d.Coords[dim]; ok {
			shape[i] = len(c)
			continue
		}
		if ts, ok := d.TimeCoords[dim]; ok {
			shape[i] = len(ts)
			continue
		}
		return nil, fmt.Errorf("dimension %s has no coordinate", dim)
	}
	return shape, nil
}

// Read returns a hyperslab of a variable.
func (d *Dataset) Read(variable string, start, count []int) ([]float64, error) {
	v, ok := d.Vars[variable]
	if !ok {
		return nil, fmt.Errorf("variable %s not found", variable)
	}
	shape, err := d.shape(v)
	if err != nil {
		return nil, err
	}
	return store.Hyperslab(v.Values, shape, start, count)
}

// Close marks the dataset closed.
func (d *Dataset) Close() error {
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Dataset) Closed() bool {
	return d.closed
}

// Opener serves in-memory datasets by location and counts open calls.
// FailFirst makes the first N calls fail, to exercise retries.
type Opener struct {
	Datasets  map[string]store.Dataset
	FailFirst int

	mu    sync.Mutex
	calls int
}

// NewOpener creates an opener serving the given datasets.
func NewOpener(datasets map[string]store.Dataset) *Opener {
	return &Opener{Datasets: datasets}
}

// Open returns the dataset registered at location.
func (o *Opener) Open(_ context.Context, location string) (store.Dataset, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls++
	if o.calls <= o.FailFirst {
		return nil, fmt.Errorf("connection reset opening %s (attempt %d)", location, o.calls)
	}
	ds, ok := o.Datasets[location]
	if !ok {
		return nil, fmt.Errorf("no dataset at %s", location)
	}
	return ds, nil
}

// Calls returns the number of Open calls so far.
func (o *Opener) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
