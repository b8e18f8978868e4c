// Package woa samples the World Ocean Atlas 2018 annual climatologies.
package woa

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/connector"
	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/metrics"
	"go.ngs.io/medenv/internal/registry"
	"go.ngs.io/medenv/internal/slicer"
)

// landFeature is sampled at the surface to tell land from sea.
const landFeature = "temperature"

// Atlas reads WOA files through a connector whose locator resolves dataset
// identifiers to files of the atlas directory.
type Atlas struct {
	conn    *connector.Connector
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	tables map[float64]*registry.Registry
}

func New(conn *connector.Connector, log zerolog.Logger, m *metrics.Metrics) *Atlas {
	return &Atlas{
		conn:    conn,
		log:     log,
		metrics: m,
		tables:  make(map[float64]*registry.Registry),
	}
}

// Features lists the measures available at a resolution.
func (a *Atlas) Features(resolution float64) ([]string, error) {
	table, err := a.table(resolution)
	if err != nil {
		return nil, err
	}
	return table.Names(), nil
}

func (a *Atlas) table(resolution float64) (*registry.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.tables[resolution]; ok {
		return t, nil
	}
	t, err := registry.WOA(resolution)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	a.tables[resolution] = t
	return t, nil
}

// GetValue returns the mean of the climatology samples selected by the spans.
// It is NaN when every selected sample is missing (land or below the sea floor).
func (a *Atlas) GetValue(ctx context.Context, lon, lat, depth domain.Span, feature string, resolution float64) (float64, error) {
	start := time.Now()
	table, err := a.table(resolution)
	if err != nil {
		return math.NaN(), err
	}
	f, err := table.Lookup(feature)
	if err != nil {
		return math.NaN(), err
	}

	q := domain.Query{
		Feature:   feature,
		Longitude: lon,
		Latitude:  lat,
		Depth:     depth,
		Reduction: domain.ReduceMean,
	}
	if err := q.Validate(); err != nil {
		return math.NaN(), err
	}

	ds, err := a.conn.Fetch(ctx, "", f.DatasetID)
	if err != nil {
		a.metrics.ObserveQuery("woa", feature, "unreachable", time.Since(start))
		return math.NaN(), err
	}
	res, err := slicer.Slice(ds, f, q)
	if err != nil {
		a.metrics.ObserveQuery("woa", feature, "error", time.Since(start))
		return math.NaN(), fmt.Errorf("failed to sample %s: %w", feature, err)
	}
	a.metrics.ObserveQuery("woa", feature, "ok", time.Since(start))

	a.log.Debug().
		Str("feature", feature).
		Stringer("lon", lon).
		Stringer("lat", lat).
		Stringer("depth", depth).
		Float64("value", res.Value).
		Msg("woa sample")
	return res.Value, nil
}

// IsLand reports whether the surface sample nearest to (lon, lat) is missing.
func (a *Atlas) IsLand(ctx context.Context, lon, lat float64) (bool, error) {
	v, err := a.GetValue(ctx, domain.At(lon), domain.At(lat), domain.At(0), landFeature, registry.DefaultWOAResolution)
	if err != nil {
		return false, err
	}
	return math.IsNaN(v), nil
}

// Close closes every opened atlas file.
func (a *Atlas) Close() error {
	return a.conn.Close()
}
