package store

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04",
	"2006-1-2 15:4:5",
	"2006-01-02",
	"2006-1-2",
}

// DecodeTimes converts CF time values ("days since 1900-01-01 00:00:00") to UTC times.
func DecodeTimes(units string, values []float64) ([]time.Time, error) {
	unit, ref, err := parseUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(values))
	for i, v := range values {
		if unit == "months" {
			whole := math.Floor(v)
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(whole) > maxOffsetDays/30 {
				return nil, fmt.Errorf("invalid time value %g %s", v, units)
			}
			t := ref.AddDate(0, int(whole), 0)
			out[i] = t.Add(time.Duration((v - whole) * 30.436875 * 24 * float64(time.Hour)))
			continue
		}
		t, err := addSeconds(ref, v*unitSeconds[unit])
		if err != nil {
			return nil, fmt.Errorf("invalid time value %g %s: %w", v, units, err)
		}
		out[i] = t
	}
	return out, nil
}

const secondsPerDay = 86400

// maxOffsetDays bounds offsets to about 270000 years either side of the reference.
const maxOffsetDays = 1e8

var unitSeconds = map[string]float64{
	"seconds": 1,
	"minutes": 60,
	"hours":   3600,
	"days":    secondsPerDay,
}

// addSeconds adds whole days with AddDate and the remainder as a Duration, so
// offsets beyond the int64 nanosecond range of time.Duration stay exact.
func addSeconds(ref time.Time, secs float64) (time.Time, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, fmt.Errorf("offset is not finite")
	}
	days := math.Floor(secs / secondsPerDay)
	if math.Abs(days) > maxOffsetDays {
		return time.Time{}, fmt.Errorf("offset of %g days is out of range", days)
	}
	rem := secs - days*secondsPerDay
	return ref.AddDate(0, 0, int(days)).Add(time.Duration(rem * float64(time.Second))), nil
}

var unitAliases = map[string]string{
	"s": "seconds", "sec": "seconds", "secs": "seconds", "second": "seconds", "seconds": "seconds",
	"min": "minutes", "mins": "minutes", "minute": "minutes", "minutes": "minutes",
	"h": "hours", "hr": "hours", "hrs": "hours", "hour": "hours", "hours": "hours",
	"d": "days", "day": "days", "days": "days",
	"month": "months", "months": "months",
}

func parseUnits(units string) (string, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("not a CF time unit: %q", units)
	}
	unit, ok := unitAliases[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unsupported time unit %q", parts[0])
	}

	refStr := strings.TrimSpace(parts[1])
	refStr = strings.TrimSuffix(refStr, " UTC")
	refStr = strings.TrimSuffix(refStr, " utc")
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, refStr, time.UTC); err == nil {
			return unit, t.UTC(), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("unsupported time reference %q", parts[1])
}
