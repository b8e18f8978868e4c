package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/medenv/internal/adapter/etopo"
	"go.ngs.io/medenv/internal/domain"
)

// Querier answers feature queries.
type Querier interface {
	GetValue(ctx context.Context, q domain.Query) (*domain.Result, error)
	Features() []string
}

// Bathymetry serves depths from a bathymetry grid.
type Bathymetry interface {
	GetValue(lon, lat float64) (float64, etopo.Node, error)
	GetDValue(lon, lat float64) (float64, etopo.Node, error)
	Interpolate(lon, lat float64) (float64, error)
}

// Handler handles HTTP requests for environmental measures.
type Handler struct {
	querier Querier
	bathy   Bathymetry
}

// NewHandler creates a new HTTP handler.
func NewHandler(querier Querier, bathy Bathymetry) *Handler {
	return &Handler{querier: querier, bathy: bathy}
}

// RowResponse is one sampled point. Missing values are null.
type RowResponse struct {
	Time      string   `json:"time"`
	Longitude float64  `json:"longitude"`
	Latitude  float64  `json:"latitude"`
	Depth     *float64 `json:"depth"`
	Value     *float64 `json:"value"`
}

// SelectedResponse lists the coordinates used. Depth is [null] without a depth axis.
type SelectedResponse struct {
	Time      []string   `json:"time"`
	Longitude []float64  `json:"longitude"`
	Latitude  []float64  `json:"latitude"`
	Depth     []*float64 `json:"depth"`
}

// ValuesResponse is the response of GET /v1/values.
type ValuesResponse struct {
	Feature   string           `json:"feature"`
	Reduction string           `json:"reduction,omitempty"`
	Value     *float64         `json:"value"`
	Rows      []RowResponse    `json:"rows"`
	Selected  SelectedResponse `json:"selected"`
}

// nullable maps NaN, which JSON cannot encode, to null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// GetValues handles GET /v1/values.
func (h *Handler) GetValues(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.querier.GetValue(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ValuesResponse{
		Feature:   res.Feature,
		Reduction: string(res.Reduction),
		Value:     nullable(res.Scalar()),
		Rows:      make([]RowResponse, len(res.Rows)),
	}
	for i, r := range res.Rows {
		resp.Rows[i] = RowResponse{
			Time:      r.Time.UTC().Format(time.RFC3339),
			Longitude: r.Longitude,
			Latitude:  r.Latitude,
			Depth:     nullable(r.Depth),
			Value:     nullable(r.Value),
		}
	}
	sel := res.Selected
	resp.Selected = SelectedResponse{
		Time:      make([]string, len(sel.Time)),
		Longitude: sel.Longitude,
		Latitude:  sel.Latitude,
		Depth:     make([]*float64, len(sel.Depth)),
	}
	for i, t := range sel.Time {
		resp.Selected.Time[i] = t.UTC().Format(time.RFC3339)
	}
	for i, d := range sel.Depth {
		resp.Selected.Depth[i] = nullable(d)
	}

	c.JSON(http.StatusOK, resp)
}

func parseQuery(c *gin.Context) (domain.Query, error) {
	q := domain.Query{Feature: c.Query("feature")}
	if q.Feature == "" {
		return q, fmt.Errorf("%w: feature parameter is required", domain.ErrInvalidQuery)
	}

	var err error
	if q.Time, err = domain.ParseTimeSpan(c.Query("date")); err != nil {
		return q, err
	}
	if q.Longitude, err = domain.ParseSpan("lon", c.Query("lon")); err != nil {
		return q, err
	}
	if q.Latitude, err = domain.ParseSpan("lat", c.Query("lat")); err != nil {
		return q, err
	}
	if q.Depth, err = domain.ParseSpan("depth", c.DefaultQuery("depth", "0")); err != nil {
		return q, err
	}
	if q.Reduction, err = domain.ParseReduction(c.Query("reduction")); err != nil {
		return q, err
	}
	return q, q.Validate()
}

// GetFeatures handles GET /v1/features.
func (h *Handler) GetFeatures(c *gin.Context) {
	features := h.querier.Features()
	c.JSON(http.StatusOK, gin.H{
		"features": features,
		"count":    len(features),
	})
}

// BathymetryResponse is the response of GET /v1/bathymetry.
type BathymetryResponse struct {
	DepthM             *float64   `json:"depth_m"`
	InterpolatedDepthM *float64   `json:"interpolated_depth_m"`
	GradientMPerDeg    *float64   `json:"gradient_m_per_deg"`
	Node               etopo.Node `json:"node"`
}

// GetBathymetry handles GET /v1/bathymetry.
func (h *Handler) GetBathymetry(c *gin.Context) {
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}

	depth, node, err := h.bathy.GetValue(lon, lat)
	if err != nil {
		writeError(c, err)
		return
	}
	grad, _, err := h.bathy.GetDValue(lon, lat)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := BathymetryResponse{
		DepthM:          nullable(depth),
		GradientMPerDeg: nullable(grad),
		Node:            node,
	}
	// Interpolation fails on the outermost grid edge; the nearest depth still stands.
	if interp, err := h.bathy.Interpolate(lon, lat); err == nil {
		resp.InterpolatedDepthM = nullable(interp)
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownFeature):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrMeasureUndefined):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDatasetUnreachable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
