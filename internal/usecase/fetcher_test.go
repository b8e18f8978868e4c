package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/domain"
)

type fakeBathymetry struct{}

func (fakeBathymetry) GetValue(lon, lat float64) (float64, etopo.Node, error) {
	return 2500, etopo.Node{Longitude: math.Round(lon), Latitude: math.Round(lat)}, nil
}

func (fakeBathymetry) MeanDepth(_, _ domain.Span) (float64, error) {
	return 1800, nil
}

func TestNewFetcher_Validation(t *testing.T) {
	c := newCMEMS(t, newOpener())

	if _, err := NewFetcher([]string{"temperature", "plankton"}, c, nil, zerolog.Nop()); !errors.Is(err, domain.ErrUnknownFeature) {
		t.Errorf("err = %v, want ErrUnknownFeature", err)
	}
	if _, err := NewFetcher([]string{FeatureBathymetry}, c, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for bathymetry without ETOPO")
	}
	if _, err := NewFetcher(nil, c, nil, zerolog.Nop()); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
	f, err := NewFetcher([]string{FeatureSeaSurfaceSalinity, "nitrate"}, c, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if got := f.Features(); len(got) != 2 {
		t.Errorf("Features() = %v", got)
	}
}

func TestNewFetcher_WithoutCMEMS(t *testing.T) {
	for _, name := range []string{"temperature", FeatureSeaSurfaceTemperature} {
		if _, err := NewFetcher([]string{name}, nil, fakeBathymetry{}, zerolog.Nop()); err == nil {
			t.Errorf("NewFetcher(%s) without CMEMS: expected an error", name)
		}
	}
	if _, err := NewFetcher([]string{FeatureBathymetry}, nil, fakeBathymetry{}, zerolog.Nop()); err != nil {
		t.Errorf("bathymetry alone should not need CMEMS: %v", err)
	}
}

func TestFetcher_GetValues(t *testing.T) {
	c := newCMEMS(t, newOpener())
	f, err := NewFetcher([]string{
		FeatureBathymetry,
		FeatureSeaSurfaceTemperature,
		"temperature",
		"nitrate",
	}, c, fakeBathymetry{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	values, selected, err := f.GetValues(context.Background(), jan2016, domain.At(5), domain.At(40), domain.At(1000))
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if len(values) != 4 || len(selected) != 4 {
		t.Fatalf("values = %v", values)
	}
	if values[FeatureBathymetry] != 2500 {
		t.Errorf("bathymetry = %v", values[FeatureBathymetry])
	}
	// Sea surface temperature is the temperature of the shallowest layer.
	if want := 50 + 4.0 - 0.01; math.Abs(values[FeatureSeaSurfaceTemperature]-want) > 1e-9 {
		t.Errorf("sst = %v, want %v", values[FeatureSeaSurfaceTemperature], want)
	}
	if want := 50 + 4.0 - 10; math.Abs(values["temperature"]-want) > 1e-9 {
		t.Errorf("temperature at 1000 m = %v, want %v", values["temperature"], want)
	}
	if d := selected["temperature"].Depth; len(d) != 1 || d[0] != 1000 {
		t.Errorf("selected depth = %v", d)
	}
	if lon := selected[FeatureBathymetry].Longitude; len(lon) != 1 || lon[0] != 5 {
		t.Errorf("bathymetry node = %v", lon)
	}
}

func TestFetcher_BathymetryRange(t *testing.T) {
	c := newCMEMS(t, newOpener())
	f, err := NewFetcher([]string{FeatureBathymetry}, c, fakeBathymetry{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	values, _, err := f.GetValues(context.Background(), jan2016, domain.Between(4, 6), domain.Between(39, 41), domain.At(0))
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if values[FeatureBathymetry] != 1800 {
		t.Errorf("bathymetry = %v, want mean depth 1800", values[FeatureBathymetry])
	}
}

func TestFetcher_PropagatesUndefinedMeasure(t *testing.T) {
	c := newCMEMS(t, newOpener())
	f, err := NewFetcher([]string{"nitrate"}, c, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	_, _, err = f.GetValues(context.Background(), jan2016.AddDate(-20, 0, 0), domain.At(5), domain.At(40), domain.At(1))
	if !errors.Is(err, domain.ErrMeasureUndefined) {
		t.Fatalf("err = %v, want ErrMeasureUndefined", err)
	}
}

func TestAvailableFeatures(t *testing.T) {
	c := newCMEMS(t, newOpener())
	names := AvailableFeatures(c)
	if len(names) != 21 {
		t.Errorf("available features = %d, want 21", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Fatalf("not sorted: %v", names)
		}
	}
}
