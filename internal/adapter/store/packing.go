package store

import "math"

// Packing describes the CF packing attributes of a variable.
type Packing struct {
	Scale   float64   // scale_factor (1 when absent).
	Offset  float64   // add_offset.
	Missing []float64 // _FillValue and missing_value, compared on raw values.
}

// DefaultPacking is the identity packing.
func DefaultPacking() Packing {
	return Packing{Scale: 1}
}

// Unpack converts raw values in place: missing values become NaN, others are scaled and offset.
func (p Packing) Unpack(values []float64) {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	for i, v := range values {
		if p.isMissing(v) {
			values[i] = math.NaN()
			continue
		}
		values[i] = v*scale + p.Offset
	}
}

func (p Packing) isMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, m := range p.Missing {
		if v == m {
			return true
		}
		// Float32 fill values widened to float64 may differ in the last bits.
		if m != 0 && math.Abs(v-m) <= math.Abs(m)*1e-6 {
			return true
		}
	}
	return false
}
