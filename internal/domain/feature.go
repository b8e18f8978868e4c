// Package domain holds the measurement, query and result types shared by the accessors.
package domain

import "time"

// SliceMode names the coordinate convention used by a backend dataset.
type SliceMode string

const (
	// SliceLonLat is used by datasets with "lon" and "lat" coordinates.
	SliceLonLat SliceMode = "lon-lat"
	// SliceLongitudeLatitude is used by datasets with "longitude" and "latitude" coordinates.
	SliceLongitudeLatitude SliceMode = "longitude-latitude"
)

// Keys returns the longitude and latitude coordinate names for the mode.
func (m SliceMode) Keys() (lon, lat string) {
	if m == SliceLonLat {
		return "lon", "lat"
	}
	return "longitude", "latitude"
}

// Feature binds a measurable quantity to the backend dataset serving it.
type Feature struct {
	Name      string    // E.g., "temperature", "chlorophyl-a".
	DatasetID string    // Backend dataset identifier (e.g., "med-cmcc-tem-rean-d").
	Variable  string    // Variable name inside the dataset (e.g., "thetao").
	SliceMode SliceMode // Coordinate naming convention.
	HasDepth  bool      // False for surface-only (2D) datasets.
	ValidFrom time.Time // Earliest date for which the dataset holds data.
}

// CheckDate fails with ErrMeasureUndefined when t precedes the feature's validity start.
func (f Feature) CheckDate(t time.Time) error {
	if !f.ValidFrom.IsZero() && t.Before(f.ValidFrom) {
		return &MeasureUndefinedError{Feature: f.Name, ValidFrom: f.ValidFrom}
	}
	return nil
}
