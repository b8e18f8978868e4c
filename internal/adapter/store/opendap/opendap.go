// Package opendap opens datasets through libnetcdf, either OPeNDAP endpoints or local NetCDF files.
package opendap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/medenv/internal/adapter/store"
)

// Opener opens NetCDF files and OPeNDAP URLs.
// libnetcdf must be built with DAP support for remote locations.
type Opener struct{}

// NewOpener creates a libnetcdf opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the dataset at location.
func (o *Opener) Open(ctx context.Context, location string) (store.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nc, err := netcdf.OpenFile(location, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", redact(location), err)
	}
	return &Dataset{nc: nc, location: redact(location)}, nil
}

// Dataset is an open libnetcdf handle.
type Dataset struct {
	nc       netcdf.Dataset
	location string
	mu       sync.Mutex // libnetcdf is not safe for concurrent use.
}

// Dims returns the dimension names of a variable.
func (d *Dataset) Dims(variable string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.nc.Var(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found in %s: %w", variable, d.location, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", variable, err)
	}
	names := make([]string, len(dims))
	for i, dim := range dims {
		names[i], err = dim.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension name: %w", err)
		}
	}
	return names, nil
}

// Coord reads a whole 1D coordinate variable.
func (d *Dataset) Coord(name string) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("coordinate %s not found in %s: %w", name, d.location, err)
	}
	return readFloat64Var(v)
}

// Times reads a time coordinate and decodes it with its "units" attribute.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("time coordinate %s not found in %s: %w", name, d.location, err)
	}
	values, err := readFloat64Var(v)
	if err != nil {
		return nil, err
	}
	units, err := readTextAttr(v.Attr("units"))
	if err != nil {
		return nil, fmt.Errorf("failed to read units of %s: %w", name, err)
	}
	return store.DecodeTimes(units, values)
}

// Read reads a hyperslab of a variable, unpacking values and masking missing ones.
func (d *Dataset) Read(variable string, start, count []int) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.nc.Var(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found in %s: %w", variable, d.location, err)
	}
	values, err := readFloat64Slice(v, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", variable, err)
	}
	packingOf(v).Unpack(values)
	return values, nil
}

// Close closes the libnetcdf handle.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nc.Close()
}

// redact strips credentials embedded in an OPeNDAP URL before it reaches logs or errors.
func redact(location string) string {
	scheme := strings.Index(location, "://")
	at := strings.LastIndex(location, "@")
	if scheme < 0 || at < scheme {
		return location
	}
	return location[:scheme+3] + "***@" + location[at+1:]
}
