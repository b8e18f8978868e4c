package opendap

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/medenv/internal/adapter/store"
)

// readFloat64Var reads a whole 1D variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: Dimension lengths fit in int.
	return readFloat64Slice(v, []int{0}, []int{int(length)})
}

// readFloat64Slice reads a hyperslab of a variable as float64.
// Supports float64, float32, int32, and int16 types; packing is not applied.
func readFloat64Slice(v netcdf.Var, start, count []int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	total := 1
	ustart := make([]uint64, len(start))
	ucount := make([]uint64, len(count))
	for i := range start {
		//nolint:gosec // G115: Indices are validated non-negative by the slicer.
		ustart[i] = uint64(start[i])
		//nolint:gosec // G115: Counts are validated non-negative by the slicer.
		ucount[i] = uint64(count[i])
		total *= count[i]
	}
	if total == 0 {
		return []float64{}, nil
	}

	flat := make([]float64, total)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(flat, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
	case netcdf.FLOAT:
		buf := make([]float32, total)
		if err := v.ReadFloat32Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.SHORT:
		buf := make([]int16, total)
		if err := v.ReadInt16Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.INT:
		buf := make([]int32, total)
		if err := v.ReadInt32Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.BYTE, netcdf.UBYTE, netcdf.CHAR, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	}
	return flat, nil
}

// packingOf reads scale_factor, add_offset, _FillValue and missing_value.
func packingOf(v netcdf.Var) store.Packing {
	p := store.DefaultPacking()
	if vals, ok := readNumericAttr(v.Attr("scale_factor")); ok && len(vals) > 0 && vals[0] != 0 {
		p.Scale = vals[0]
	}
	if vals, ok := readNumericAttr(v.Attr("add_offset")); ok && len(vals) > 0 {
		p.Offset = vals[0]
	}
	for _, name := range []string{"_FillValue", "missing_value"} {
		if vals, ok := readNumericAttr(v.Attr(name)); ok {
			p.Missing = append(p.Missing, vals...)
		}
	}
	return p
}

// readNumericAttr reads a numeric attribute of any common type. ok is false when absent.
func readNumericAttr(a netcdf.Attr) ([]float64, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return nil, false
	}
	t, err := a.Type()
	if err != nil {
		return nil, false
	}
	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := a.ReadFloat64s(out); err != nil {
			return nil, false
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err != nil {
			return nil, false
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err != nil {
			return nil, false
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err != nil {
			return nil, false
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	default:
		return nil, false
	}
	return out, true
}

// readTextAttr reads a CHAR attribute.
func readTextAttr(a netcdf.Attr) (string, error) {
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	// Some writers include the terminating NUL.
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}
