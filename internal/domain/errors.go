package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownFeature is returned when a feature name is absent from a registry.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrMeasureUndefined is returned when a query predates a feature's validity start.
	ErrMeasureUndefined = errors.New("measure undefined")
	// ErrDatasetUnreachable is returned once every open attempt on a dataset has failed.
	ErrDatasetUnreachable = errors.New("dataset unreachable")
	// ErrAuthentication is returned when the login to the remote service fails.
	ErrAuthentication = errors.New("authentication failed")
	// ErrInvalidQuery is returned for malformed queries (empty spans, inverted ranges, missing date).
	ErrInvalidQuery = errors.New("invalid query")
)

// MeasureUndefinedError reports the validity start of the requested feature.
type MeasureUndefinedError struct {
	Feature   string
	ValidFrom time.Time
}

func (e *MeasureUndefinedError) Error() string {
	return fmt.Sprintf("cannot get %s before %s: %v", e.Feature, e.ValidFrom.Format("2006-01-02"), ErrMeasureUndefined)
}

// Unwrap lets errors.Is match ErrMeasureUndefined.
func (e *MeasureUndefinedError) Unwrap() error {
	return ErrMeasureUndefined
}
