// Package export writes query results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"go.ngs.io/medenv/internal/domain"
)

// Header is the column layout of WriteRows.
var Header = []string{"time", "longitude", "latitude", "depth", "feature", "value"}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteRows writes one line per result row. Missing values are written as NaN.
func WriteRows(w io.Writer, res *domain.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range res.Rows {
		record := []string{
			r.Time.UTC().Format(time.RFC3339),
			formatFloat(r.Longitude),
			formatFloat(r.Latitude),
			formatFloat(r.Depth),
			res.Feature,
			formatFloat(r.Value),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteValues writes a feature,value table sorted by feature name.
func WriteValues(w io.Writer, values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, name := range names {
		if err := cw.Write([]string{name, formatFloat(values[name])}); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
