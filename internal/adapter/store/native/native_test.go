package native

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFlattenNested(t *testing.T) {
	values, shape, err := flatten([][][]float32{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}})
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(shape) != 3 || shape[0] != 2 || shape[1] != 2 || shape[2] != 2 {
		t.Fatalf("unexpected shape %v", shape)
	}
	for i, v := range values {
		if v != float64(i+1) {
			t.Fatalf("unexpected values %v", values)
		}
	}
}

func TestFlattenScalarAndIntegers(t *testing.T) {
	values, shape, err := flatten(float32(9.5))
	if err != nil || len(shape) != 0 || len(values) != 1 || values[0] != 9.5 {
		t.Fatalf("scalar: %v %v %v", values, shape, err)
	}
	values, _, err = flatten([]int16{-1, 2})
	if err != nil || values[0] != -1 || values[1] != 2 {
		t.Fatalf("int16: %v %v", values, err)
	}
	if _, _, err := flatten("text"); err == nil {
		t.Fatal("expected error for text values")
	}
	if _, _, err := flatten([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error for ragged arrays")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := NewOpener().Open(context.Background(), filepath.Join(t.TempDir(), "woa.nc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
