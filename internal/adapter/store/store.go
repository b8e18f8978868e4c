// Package store defines the gridded dataset abstraction the accessors slice from.
package store

import (
	"context"
	"fmt"
	"time"
)

// Dataset is an open handle to a gridded dataset (a NetCDF file or an OPeNDAP endpoint).
type Dataset interface {
	// Dims returns the dimension names of a variable, outermost first.
	Dims(variable string) ([]string, error)

	// Coord returns the values of a 1D coordinate variable.
	Coord(name string) ([]float64, error)

	// Times decodes a CF time coordinate ("<unit> since <reference>").
	Times(name string) ([]time.Time, error)

	// Read returns the hyperslab [start, start+count) of a variable in row-major order.
	// Packed values are unpacked and missing values are returned as NaN.
	Read(variable string, start, count []int) ([]float64, error)

	// Close releases the handle.
	Close() error
}

// Opener opens datasets by location (URL or path).
type Opener interface {
	Open(ctx context.Context, location string) (Dataset, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, location string) (Dataset, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, location string) (Dataset, error) {
	return f(ctx, location)
}

// Hyperslab extracts [start, start+count) from a row-major array of the given shape.
func Hyperslab(data []float64, shape, start, count []int) ([]float64, error) {
	if len(shape) != len(start) || len(shape) != len(count) {
		return nil, fmt.Errorf("hyperslab rank mismatch: shape %v, start %v, count %v", shape, start, count)
	}
	total := 1
	for i := range shape {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > shape[i] {
			return nil, fmt.Errorf("hyperslab out of bounds on dimension %d: start %d count %d size %d", i, start[i], count[i], shape[i])
		}
		total *= count[i]
	}
	if total == 0 {
		return []float64{}, nil
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	if stride != len(data) {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}

	out := make([]float64, 0, total)
	idx := make([]int, len(shape))
	for {
		off := 0
		for i := range idx {
			off += (start[i] + idx[i]) * strides[i]
		}
		out = append(out, data[off])

		// Odometer increment, innermost dimension first.
		d := len(idx) - 1
		for d >= 0 {
			idx[d]++
			if idx[d] < count[d] {
				break
			}
			idx[d] = 0
			d--
		}
		if d < 0 {
			return out, nil
		}
	}
}
