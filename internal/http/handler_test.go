package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQuerier struct {
	last domain.Query
	res  *domain.Result
	err  error
}

func (f *fakeQuerier) GetValue(_ context.Context, q domain.Query) (*domain.Result, error) {
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeQuerier) Features() []string { return []string{"salinity", "temperature"} }

type fakeBathy struct{}

func (fakeBathy) GetValue(lon, lat float64) (float64, etopo.Node, error) {
	return 1200, etopo.Node{Longitude: lon, Latitude: lat}, nil
}

func (fakeBathy) GetDValue(lon, lat float64) (float64, etopo.Node, error) {
	return 35, etopo.Node{Longitude: lon, Latitude: lat}, nil
}

func (fakeBathy) Interpolate(_, _ float64) (float64, error) {
	return 0, errors.New("outside grid")
}

var day = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestRouter(q Querier, b Bathymetry) *gin.Engine {
	return SetupRouter(RouterConfig{Querier: q, Bathymetry: b, Logger: zerolog.Nop()})
}

func get(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := get(t, newTestRouter(&fakeQuerier{}, nil), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestGetFeatures(t *testing.T) {
	w := get(t, newTestRouter(&fakeQuerier{}, nil), "/v1/features")
	var body struct {
		Features []string `json:"features"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || body.Features[1] != "temperature" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestGetValuesPoint(t *testing.T) {
	q := &fakeQuerier{res: &domain.Result{
		Feature: "temperature",
		Rows: []domain.Row{
			{Time: day, Longitude: 5, Latitude: 40, Depth: 1, Value: 15.5},
		},
		Selected: domain.Coordinates{
			Time:      []time.Time{day},
			Longitude: []float64{5},
			Latitude:  []float64{40},
			Depth:     []float64{1},
		},
	}}
	w := get(t, newTestRouter(q, nil), "/v1/values?feature=temperature&date=2016-01-01&lon=5&lat=40&depth=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body ValuesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Value == nil || *body.Value != 15.5 {
		t.Errorf("value = %v, want 15.5", body.Value)
	}
	if len(body.Rows) != 1 || body.Rows[0].Time != "2016-01-01T00:00:00Z" {
		t.Errorf("rows = %+v", body.Rows)
	}

	if !q.last.Longitude.IsPoint() || q.last.Longitude.Value() != 5 {
		t.Errorf("longitude = %v", q.last.Longitude)
	}
	if !q.last.Time.IsPoint() || !q.last.Time.Start.Equal(day) {
		t.Errorf("time = %v", q.last.Time)
	}
}

func TestGetValuesRangeAndDefaults(t *testing.T) {
	q := &fakeQuerier{res: &domain.Result{
		Feature:   "temperature",
		Reduction: domain.ReduceMean,
		Value:     math.NaN(),
		Selected:  domain.Coordinates{Depth: []float64{math.NaN()}},
	}}
	target := "/v1/values?feature=temperature&date=2016-01-01T00:00:00Z,2016-01-03T00:00:00Z&lon=0,10&lat=38,42&reduction=mean"
	w := get(t, newTestRouter(q, nil), target)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body ValuesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Value != nil {
		t.Errorf("NaN value should encode as null, got %v", *body.Value)
	}
	if len(body.Selected.Depth) != 1 || body.Selected.Depth[0] != nil {
		t.Errorf("selected depth = %v, want [null]", body.Selected.Depth)
	}

	if !q.last.Longitude.IsRange() || q.last.Longitude.Min != 0 || q.last.Longitude.Max != 10 {
		t.Errorf("longitude = %v", q.last.Longitude)
	}
	if !q.last.Time.IsRange() {
		t.Errorf("time = %v, want range", q.last.Time)
	}
	if !q.last.Depth.IsPoint() || q.last.Depth.Value() != 0 {
		t.Errorf("depth default = %v, want 0", q.last.Depth)
	}
	if q.last.Reduction != domain.ReduceMean {
		t.Errorf("reduction = %q", q.last.Reduction)
	}
}

func TestGetValuesBadInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing feature", "/v1/values?date=2016-01-01&lon=5&lat=40"},
		{"missing date", "/v1/values?feature=temperature&lon=5&lat=40"},
		{"bad date", "/v1/values?feature=temperature&date=01/01/2016&lon=5&lat=40"},
		{"bad lon", "/v1/values?feature=temperature&date=2016-01-01&lon=east&lat=40"},
		{"missing lat", "/v1/values?feature=temperature&date=2016-01-01&lon=5"},
		{"inverted range", "/v1/values?feature=temperature&date=2016-01-01&lon=10,0&lat=40"},
		{"three bounds", "/v1/values?feature=temperature&date=2016-01-01&lon=1,2,3&lat=40"},
		{"bad reduction", "/v1/values?feature=temperature&date=2016-01-01&lon=5&lat=40&reduction=max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{}
			w := get(t, newTestRouter(q, nil), tt.target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			if q.last.Feature != "" {
				t.Error("querier should not be called on bad input")
			}
		})
	}
}

func TestGetValuesErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: salinity-x", domain.ErrUnknownFeature), http.StatusNotFound},
		{&domain.MeasureUndefinedError{Feature: "nitrate", ValidFrom: day}, http.StatusBadRequest},
		{fmt.Errorf("failed to open: %w", domain.ErrDatasetUnreachable), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		q := &fakeQuerier{err: tt.err}
		w := get(t, newTestRouter(q, nil), "/v1/values?feature=temperature&date=2016-01-01&lon=5&lat=40")
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestGetBathymetry(t *testing.T) {
	w := get(t, newTestRouter(&fakeQuerier{}, fakeBathy{}), "/v1/bathymetry?lon=5&lat=40")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body BathymetryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.DepthM == nil || *body.DepthM != 1200 {
		t.Errorf("depth = %v", body.DepthM)
	}
	if body.GradientMPerDeg == nil || *body.GradientMPerDeg != 35 {
		t.Errorf("gradient = %v", body.GradientMPerDeg)
	}
	if body.InterpolatedDepthM != nil {
		t.Errorf("interpolated depth should be null when interpolation fails")
	}

	w = get(t, newTestRouter(&fakeQuerier{}, fakeBathy{}), "/v1/bathymetry?lon=x&lat=40")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBathymetryRouteRequiresStore(t *testing.T) {
	w := get(t, newTestRouter(&fakeQuerier{}, nil), "/v1/bathymetry?lon=5&lat=40")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
