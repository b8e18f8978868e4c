// Package native opens local NetCDF files with a pure-Go reader (no libnetcdf required).
// Variables are decoded whole on first read and kept for the lifetime of the handle,
// which suits the single-time-step climatologies it serves.
package native

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"go.ngs.io/medenv/internal/adapter/store"
)

// Opener opens local NetCDF (CDF or HDF5-based) files.
type Opener struct{}

// NewOpener creates a pure-Go opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the file at path.
func (o *Opener) Open(ctx context.Context, path string) (store.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Dataset{nc: nc, path: path, arrays: make(map[string]*array)}, nil
}

type array struct {
	shape  []int
	values []float64
}

// Dataset is an open pure-Go NetCDF handle.
type Dataset struct {
	nc     api.Group
	path   string
	arrays map[string]*array // Decoded and unpacked variables.
	mu     sync.Mutex
}

// Dims returns the dimension names of a variable.
func (d *Dataset) Dims(variable string) ([]string, error) {
	vg, err := d.nc.GetVarGetter(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found in %s: %w", variable, d.path, err)
	}
	return vg.Dimensions(), nil
}

// Coord reads a whole 1D coordinate variable.
func (d *Dataset) Coord(name string) ([]float64, error) {
	vg, err := d.nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("coordinate %s not found in %s: %w", name, d.path, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	values, _, err := flatten(raw)
	return values, err
}

// Times reads a time coordinate and decodes it with its "units" attribute.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	vg, err := d.nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("time coordinate %s not found in %s: %w", name, d.path, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	values, _, err := flatten(raw)
	if err != nil {
		return nil, err
	}
	u, ok := vg.Attributes().Get("units")
	if !ok {
		return nil, fmt.Errorf("time coordinate %s has no units", name)
	}
	units, ok := u.(string)
	if !ok {
		return nil, fmt.Errorf("time units of %s are %T, expected text", name, u)
	}
	return store.DecodeTimes(units, values)
}

// Read returns a hyperslab of a variable, decoding the whole variable on first use.
func (d *Dataset) Read(variable string, start, count []int) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	arr, ok := d.arrays[variable]
	if !ok {
		vg, err := d.nc.GetVarGetter(variable)
		if err != nil {
			return nil, fmt.Errorf("variable %s not found in %s: %w", variable, d.path, err)
		}
		raw, err := vg.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", variable, err)
		}
		values, shape, err := flatten(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", variable, err)
		}
		packingOf(vg.Attributes()).Unpack(values)
		arr = &array{shape: shape, values: values}
		d.arrays[variable] = arr
	}
	return store.Hyperslab(arr.values, arr.shape, start, count)
}

// Close closes the file.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.arrays = nil
	d.nc.Close()
	return nil
}

func packingOf(attrs api.AttributeMap) store.Packing {
	p := store.DefaultPacking()
	if attrs == nil {
		return p
	}
	if v, ok := attrs.Get("scale_factor"); ok {
		if vals, _, err := flatten(v); err == nil && len(vals) > 0 && vals[0] != 0 {
			p.Scale = vals[0]
		}
	}
	if v, ok := attrs.Get("add_offset"); ok {
		if vals, _, err := flatten(v); err == nil && len(vals) > 0 {
			p.Offset = vals[0]
		}
	}
	for _, name := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrs.Get(name); ok {
			if vals, _, err := flatten(v); err == nil {
				p.Missing = append(p.Missing, vals...)
			}
		}
	}
	return p
}

// flatten converts a numeric scalar or (nested) slice into a row-major []float64 and its shape.
func flatten(v interface{}) ([]float64, []int, error) {
	rv := reflect.ValueOf(v)
	var shape []int
	for t := rv; t.Kind() == reflect.Slice; {
		shape = append(shape, t.Len())
		if t.Len() == 0 {
			break
		}
		t = t.Index(0)
	}
	out := make([]float64, 0, product(shape))
	var walk func(reflect.Value, int) error
	walk = func(x reflect.Value, depth int) error {
		if x.Kind() == reflect.Slice {
			if depth >= len(shape) || x.Len() != shape[depth] {
				return fmt.Errorf("ragged array at depth %d", depth)
			}
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		switch x.Kind() {
		case reflect.Float32, reflect.Float64:
			out = append(out, x.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(x.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(x.Uint()))
		default:
			return fmt.Errorf("unsupported value type %s", x.Type())
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
