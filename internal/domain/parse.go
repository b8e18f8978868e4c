package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSpan reads "v" as a point and "a,b" as a closed range. name labels errors.
func ParseSpan(name, s string) (Span, error) {
	if s == "" {
		return Span{}, fmt.Errorf("%w: %s is required", ErrInvalidQuery, name)
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return Span{}, fmt.Errorf("%w: %s must be a value or a min,max range", ErrInvalidQuery, name)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Span{}, fmt.Errorf("%w: invalid %s: %v", ErrInvalidQuery, name, err)
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return At(vals[0]), nil
	}
	return Between(vals[0], vals[1]), nil
}

// ParseTimeSpan reads a date as a point and "start,end" as a closed range.
func ParseTimeSpan(s string) (TimeSpan, error) {
	if s == "" {
		return TimeSpan{}, fmt.Errorf("%w: date is required", ErrInvalidQuery)
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return TimeSpan{}, fmt.Errorf("%w: date must be a date or a start,end range", ErrInvalidQuery)
	}
	times := make([]time.Time, len(parts))
	for i, p := range parts {
		t, err := ParseDate(strings.TrimSpace(p))
		if err != nil {
			return TimeSpan{}, err
		}
		times[i] = t
	}
	if len(times) == 1 {
		return On(times[0]), nil
	}
	return During(times[0], times[1]), nil
}

// ParseDate accepts RFC3339 timestamps and YYYY-MM-DD dates (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (expected RFC3339 or YYYY-MM-DD)", ErrInvalidQuery, s)
	}
	return t, nil
}
