package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cropsight/pipeline"
	"cropsight/raster"
)

// Request/response DTOs. Keep them minimal and explicit.

var errBadGeometry = errors.New("geometry.type must be Polygon or MultiPolygon")

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type createFieldReq struct {
	Name     string          `json:"name"`
	Geometry json.RawMessage `json:"geometry"`         // GeoJSON Polygon/MultiPolygon
	AreaHa   *float64        `json:"areaHa,omitempty"` // stored under meta.areaHa
	Notes    string          `json:"notes,omitempty"`
	Crop     string          `json:"crop,omitempty"`
	Photo    string          `json:"photo,omitempty"`
}

// rasterPayload is a multi-band pixel grid on the wire.
type rasterPayload struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Bands  int       `json:"bands"`
	Pixels []float64 `json:"pixels"` // row-major, band interleaved
}

func (p rasterPayload) toRaster() (*raster.Raster, error) {
	r := &raster.Raster{Height: p.Height, Width: p.Width, Bands: p.Bands, Pixels: p.Pixels}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// observationPayload is one dated capture in an analysis request.
type observationPayload struct {
	Date   time.Time     `json:"date"`
	Raster rasterPayload `json:"raster"`
}

// analyzeFieldReq carries the capture series for one analysis run.
// Observations must be ordered by date; the handler verifies that rather
// than re-sorting, since the trend slope is positional.
type analyzeFieldReq struct {
	Observations []observationPayload `json:"observations"`
	SkipFailed   bool                 `json:"skipFailed,omitempty"`
}

func (req analyzeFieldReq) toSamples() ([]pipeline.Sample, error) {
	samples := make([]pipeline.Sample, len(req.Observations))
	for i, o := range req.Observations {
		if o.Date.IsZero() {
			return nil, fmt.Errorf("observation %d: date is required", i)
		}
		if i > 0 && o.Date.Before(req.Observations[i-1].Date) {
			return nil, fmt.Errorf("observation %d: dates must be in ascending order", i)
		}
		r, err := o.Raster.toRaster()
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		samples[i] = pipeline.Sample{Date: o.Date, Raster: r}
	}
	return samples, nil
}

// detectDiseaseReq carries one field photo for disease detection.
type detectDiseaseReq struct {
	Image rasterPayload `json:"image"`
}
