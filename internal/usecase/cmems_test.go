package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"go.ngs.io/medenv/internal/adapter/auth"
	"go.ngs.io/medenv/internal/adapter/connector"
	"go.ngs.io/medenv/internal/adapter/store"
	"go.ngs.io/medenv/internal/adapter/store/memory"
	"go.ngs.io/medenv/internal/config"
	"go.ngs.io/medenv/internal/domain"
)

const testURL = "mem://{prefix}/{dataset}"

var creds = auth.Credentials{Username: "alice", Password: "secret"}

func loc(dataset string) string {
	return "mem://alice:secret@my/" + dataset
}

type fakeAuth struct {
	calls int
	fail  bool
}

func (f *fakeAuth) Login(_ context.Context, c auth.Credentials) (*oauth2.Token, error) {
	f.calls++
	if f.fail || c.Password != "secret" {
		return nil, domain.ErrAuthentication
	}
	return &oauth2.Token{AccessToken: "t"}, nil
}

var jan2016 = time.Date(2016, 1, 1, 12, 0, 0, 0, time.UTC)

// gridDataset builds a daily [time, depth, lat, lon] (or depthless) dataset
// using the coordinate names of the slice mode. Values are 10*lon + lat/10 - depth/100.
func gridDataset(variable string, mode domain.SliceMode, withDepth bool) *memory.Dataset {
	lonKey, latKey := mode.Keys()
	ds := memory.NewDataset()
	ds.TimeCoords["time"] = []time.Time{jan2016, jan2016.AddDate(0, 0, 1)}
	ds.Coords[lonKey] = []float64{0, 2.5, 5, 7.5, 10, 12.5}
	ds.Coords[latKey] = []float64{38, 40, 42}
	depths := []float64{0}
	dims := []string{"time", latKey, lonKey}
	if withDepth {
		depths = []float64{1, 100, 1000}
		ds.Coords["depth"] = depths
		dims = []string{"time", "depth", latKey, lonKey}
	}

	var values []float64
	for range ds.TimeCoords["time"] {
		for _, d := range depths {
			for _, lat := range ds.Coords[latKey] {
				for _, lon := range ds.Coords[lonKey] {
					values = append(values, 10*lon+lat/10-d/100)
				}
			}
		}
	}
	ds.Vars[variable] = memory.Variable{Dims: dims, Values: values}
	return ds
}

func newOpener() *memory.Opener {
	return memory.NewOpener(map[string]store.Dataset{
		loc("med-cmcc-tem-rean-d"): gridDataset("thetao", domain.SliceLonLat, true),
		loc("med-cmcc-sal-rean-d"): gridDataset("so", domain.SliceLonLat, true),
		loc("med-cmcc-mld-rean-d"): gridDataset("mlotst", domain.SliceLonLat, false),
		loc("med-ogs-nut-rean-d"):  gridDataset("no3", domain.SliceLongitudeLatitude, true),
		loc("med-ogs-co2-rean-d"):  gridDataset("spco2", domain.SliceLongitudeLatitude, false),
	})
}

func newCMEMS(t *testing.T, o store.Opener) *CMEMS {
	t.Helper()
	c, err := NewCMEMS(context.Background(), CMEMSOptions{
		Credentials:   creds,
		Authenticator: &fakeAuth{},
		Opener:        o,
		DatasetURL:    testURL,
		Logger:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewCMEMS: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func pointQuery(feature string, date time.Time, lon, lat, depth float64) domain.Query {
	return domain.Query{
		Feature:   feature,
		Time:      domain.On(date),
		Longitude: domain.At(lon),
		Latitude:  domain.At(lat),
		Depth:     domain.At(depth),
	}
}

func TestNewCMEMS_LoginFailure(t *testing.T) {
	a := &fakeAuth{fail: true}
	c, err := NewCMEMS(context.Background(), CMEMSOptions{
		Credentials:   creds,
		Authenticator: a,
		Opener:        newOpener(),
		Logger:        zerolog.Nop(),
	})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
	if c != nil {
		t.Error("accessor returned despite login failure")
	}
	if a.calls != 1 {
		t.Errorf("login calls = %d, want 1", a.calls)
	}
}

func TestGetValue_PointWithinOneGridStep(t *testing.T) {
	c := newCMEMS(t, newOpener())

	res, err := c.GetValue(context.Background(), pointQuery("temperature", jan2016, 5.9, 40.4, 90))
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	r := res.Rows[0]
	if math.Abs(r.Longitude-5.9) > 2.5 || math.Abs(r.Latitude-40.4) > 2 {
		t.Errorf("selected (%v, %v) further than one grid step from (5.9, 40.4)", r.Longitude, r.Latitude)
	}
	if r.Depth != 100 {
		t.Errorf("depth = %v, want 100", r.Depth)
	}
	if want := 10*5 + 4.0 - 1; math.Abs(res.Scalar()-want) > 1e-9 {
		t.Errorf("value = %v, want %v", res.Scalar(), want)
	}
}

func TestGetValue_LongitudeRange(t *testing.T) {
	c := newCMEMS(t, newOpener())

	q := pointQuery("salinity", jan2016, 0, 40, 1)
	q.Longitude = domain.Between(0, 10)
	res, err := c.GetValue(context.Background(), q)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if len(res.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(res.Rows))
	}
	for _, r := range res.Rows {
		if r.Longitude < 0 || r.Longitude > 10 {
			t.Errorf("longitude %v outside [0, 10]", r.Longitude)
		}
	}
}

func TestGetValue_DepthlessFeatures(t *testing.T) {
	c := newCMEMS(t, newOpener())

	for _, feature := range []string{"mixed-layer-thickness", "surface-partial-pressure-co2"} {
		res, err := c.GetValue(context.Background(), pointQuery(feature, jan2016, 5, 40, 37.5))
		if err != nil {
			t.Fatalf("GetValue(%s): %v", feature, err)
		}
		if len(res.Rows) != 1 {
			t.Fatalf("%s: rows = %d, want 1", feature, len(res.Rows))
		}
		if res.Rows[0].Depth != 37.5 {
			t.Errorf("%s: depth = %v, want 37.5", feature, res.Rows[0].Depth)
		}
		if d := res.Selected.Depth; len(d) != 1 || !math.IsNaN(d[0]) {
			t.Errorf("%s: selected depth = %v, want [NaN]", feature, d)
		}
	}
}

func TestGetValue_BeforeValidityOpensNothing(t *testing.T) {
	o := newOpener()
	c := newCMEMS(t, o)

	day := time.Date(1998, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err := c.GetValue(context.Background(), pointQuery("nitrate", day, 5, 40, 1))
	if !errors.Is(err, domain.ErrMeasureUndefined) {
		t.Fatalf("err = %v, want ErrMeasureUndefined", err)
	}
	var undefined *domain.MeasureUndefinedError
	if !errors.As(err, &undefined) || undefined.ValidFrom.Year() != 1999 {
		t.Errorf("err = %#v, want validity start 1999", err)
	}
	if o.Calls() != 0 {
		t.Errorf("open calls = %d, want 0", o.Calls())
	}
}

func TestGetValue_RangeStartingBeforeValidityOpensNothing(t *testing.T) {
	o := newOpener()
	c := newCMEMS(t, o)

	q := domain.Query{
		Feature: "nitrate",
		Time: domain.During(
			time.Date(1998, 12, 31, 0, 0, 0, 0, time.UTC),
			time.Date(1999, 2, 1, 0, 0, 0, 0, time.UTC),
		),
		Longitude: domain.At(5),
		Latitude:  domain.At(40),
		Depth:     domain.At(1),
	}
	_, err := c.GetValue(context.Background(), q)
	if !errors.Is(err, domain.ErrMeasureUndefined) {
		t.Fatalf("err = %v, want ErrMeasureUndefined", err)
	}
	if o.Calls() != 0 {
		t.Errorf("open calls = %d, want 0", o.Calls())
	}
}

func TestGetValue_UnknownFeatureOpensNothing(t *testing.T) {
	o := newOpener()
	c := newCMEMS(t, o)

	_, err := c.GetValue(context.Background(), pointQuery("turbidity", jan2016, 5, 40, 1))
	if !errors.Is(err, domain.ErrUnknownFeature) {
		t.Fatalf("err = %v, want ErrUnknownFeature", err)
	}
	if o.Calls() != 0 {
		t.Errorf("open calls = %d, want 0", o.Calls())
	}
}

func TestGetValue_DateRequired(t *testing.T) {
	c := newCMEMS(t, newOpener())
	q := pointQuery("temperature", jan2016, 5, 40, 1)
	q.Time = domain.TimeSpan{}
	if _, err := c.GetValue(context.Background(), q); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestGetValue_OpensDatasetOnce(t *testing.T) {
	o := newOpener()
	c := newCMEMS(t, o)

	for i := 0; i < 4; i++ {
		if _, err := c.GetValue(context.Background(), pointQuery("temperature", jan2016, float64(i), 40, 1)); err != nil {
			t.Fatalf("GetValue %d: %v", i, err)
		}
	}
	if o.Calls() != 1 {
		t.Errorf("open calls = %d, want 1", o.Calls())
	}
}

func TestGetValue_RetriesFlakyOpens(t *testing.T) {
	o := newOpener()
	o.FailFirst = connector.DefaultMaxAttempts - 1
	c := newCMEMS(t, o)
	if _, err := c.GetValue(context.Background(), pointQuery("temperature", jan2016, 5, 40, 1)); err != nil {
		t.Fatalf("GetValue: %v", err)
	}

	o = newOpener()
	o.FailFirst = connector.DefaultMaxAttempts
	c = newCMEMS(t, o)
	_, err := c.GetValue(context.Background(), pointQuery("temperature", jan2016, 5, 40, 1))
	if !errors.Is(err, domain.ErrDatasetUnreachable) {
		t.Fatalf("err = %v, want ErrDatasetUnreachable", err)
	}
}

func TestGetValue_MeanReduction(t *testing.T) {
	c := newCMEMS(t, newOpener())

	q := pointQuery("temperature", jan2016, 0, 40, 1)
	q.Longitude = domain.Between(0, 5)
	q.Reduction = domain.ReduceMean
	res, err := c.GetValue(context.Background(), q)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	// Mean of 10*lon over lon 0, 2.5, 5 plus lat/10 - depth/100.
	if want := 25 + 4.0 - 0.01; math.Abs(res.Value-want) > 1e-9 {
		t.Errorf("mean = %v, want %v", res.Value, want)
	}
}

func TestFeatures(t *testing.T) {
	c := newCMEMS(t, newOpener())
	if n := len(c.Features()); n != 18 {
		t.Errorf("features = %d, want 18", n)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Config{
		Username:   "alice",
		Password:   "secret",
		HostPrefix: "nrt",
		DatasetURL: testURL,
		NumRetries: 3,
		SkipLogin:  true,
	}
	opts, err := OptionsFromConfig(cfg, nil, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Authenticator != nil {
		t.Error("skip-login should leave the authenticator unset")
	}
	if opts.Opener == nil {
		t.Error("opener is not set")
	}
	if opts.HostPrefix != "nrt" || opts.DatasetURL != testURL || opts.MaxAttempts != 3 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Credentials != creds {
		t.Errorf("credentials = %+v, want %+v", opts.Credentials, creds)
	}

	cfg.SkipLogin = false
	opts, err = OptionsFromConfig(cfg, nil, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := opts.Authenticator.(*auth.Authenticator); !ok {
		t.Errorf("authenticator = %T, want *auth.Authenticator", opts.Authenticator)
	}
}
