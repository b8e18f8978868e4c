package domain

import (
	"fmt"
	"math"
	"time"
)

type spanKind int

const (
	spanAny spanKind = iota
	spanPoint
	spanRange
)

// Span is one numeric axis of a query: a point, a closed range, or unconstrained (zero value).
type Span struct {
	Min, Max float64
	kind     spanKind
}

// At returns a point span selecting the nearest coordinate to v.
func At(v float64) Span {
	return Span{Min: v, Max: v, kind: spanPoint}
}

// Between returns a range span selecting every coordinate in [a, b].
func Between(a, b float64) Span {
	return Span{Min: a, Max: b, kind: spanRange}
}

// IsPoint reports whether the span selects a single nearest coordinate.
func (s Span) IsPoint() bool { return s.kind == spanPoint }

// IsRange reports whether the span is a closed range.
func (s Span) IsRange() bool { return s.kind == spanRange }

// IsAny reports whether the span is unconstrained.
func (s Span) IsAny() bool { return s.kind == spanAny }

// Value returns the point value, the lower bound of a range, or NaN when unconstrained.
func (s Span) Value() float64 {
	if s.kind == spanAny {
		return math.NaN()
	}
	return s.Min
}

// Center returns the midpoint of the span.
func (s Span) Center() float64 {
	if s.kind == spanAny {
		return math.NaN()
	}
	return (s.Min + s.Max) / 2
}

// Contains reports whether v is selected by a range or unconstrained span.
func (s Span) Contains(v float64) bool {
	switch s.kind {
	case spanRange:
		return v >= s.Min && v <= s.Max
	case spanPoint:
		return v == s.Min
	default:
		return true
	}
}

func (s Span) String() string {
	switch s.kind {
	case spanPoint:
		return fmt.Sprintf("%g", s.Min)
	case spanRange:
		return fmt.Sprintf("(%g, %g)", s.Min, s.Max)
	default:
		return "*"
	}
}

// Validate rejects inverted ranges and NaN bounds.
func (s Span) Validate() error {
	if s.kind == spanAny {
		return nil
	}
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) {
		return fmt.Errorf("%w: NaN bound", ErrInvalidQuery)
	}
	if s.Min > s.Max {
		return fmt.Errorf("%w: range (%g, %g) is inverted", ErrInvalidQuery, s.Min, s.Max)
	}
	return nil
}

// TimeSpan is the time axis of a query.
type TimeSpan struct {
	Start, End time.Time
	kind       spanKind
}

// On returns a time span selecting the nearest time step to t.
func On(t time.Time) TimeSpan {
	return TimeSpan{Start: t, End: t, kind: spanPoint}
}

// During returns a time span selecting every time step in [start, end].
func During(start, end time.Time) TimeSpan {
	return TimeSpan{Start: start, End: end, kind: spanRange}
}

// IsPoint reports whether the span selects a single nearest time step.
func (s TimeSpan) IsPoint() bool { return s.kind == spanPoint }

// IsRange reports whether the span is a closed range.
func (s TimeSpan) IsRange() bool { return s.kind == spanRange }

// IsAny reports whether the span is unconstrained.
func (s TimeSpan) IsAny() bool { return s.kind == spanAny }

// Seconds converts the span to a numeric span in Unix seconds.
func (s TimeSpan) Seconds() Span {
	switch s.kind {
	case spanPoint:
		return At(unixSeconds(s.Start))
	case spanRange:
		return Between(unixSeconds(s.Start), unixSeconds(s.End))
	default:
		return Span{}
	}
}

func (s TimeSpan) String() string {
	switch s.kind {
	case spanPoint:
		return s.Start.UTC().Format(time.RFC3339)
	case spanRange:
		return fmt.Sprintf("(%s, %s)", s.Start.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339))
	default:
		return "*"
	}
}

// Validate rejects inverted ranges.
func (s TimeSpan) Validate() error {
	if s.kind == spanRange && s.End.Before(s.Start) {
		return fmt.Errorf("%w: time range ends before it starts", ErrInvalidQuery)
	}
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Reduction is an aggregation applied to a selected slice.
type Reduction string

const (
	// ReduceNone keeps every sampled row.
	ReduceNone Reduction = ""
	// ReduceMean averages the non-missing samples into a scalar.
	ReduceMean Reduction = "mean"
)

// ParseReduction accepts "", "none" and "mean".
func ParseReduction(s string) (Reduction, error) {
	switch s {
	case "", "none":
		return ReduceNone, nil
	case "mean":
		return ReduceMean, nil
	default:
		return ReduceNone, fmt.Errorf("%w: unsupported reduction %q", ErrInvalidQuery, s)
	}
}

// Query asks for one feature over a time, longitude, latitude and depth selection.
type Query struct {
	Feature   string
	Time      TimeSpan
	Longitude Span
	Latitude  Span
	Depth     Span
	Reduction Reduction
}

// Validate checks every span of the query.
func (q Query) Validate() error {
	if q.Feature == "" {
		return fmt.Errorf("%w: feature is required", ErrInvalidQuery)
	}
	if err := q.Time.Validate(); err != nil {
		return err
	}
	for _, s := range []Span{q.Longitude, q.Latitude, q.Depth} {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
