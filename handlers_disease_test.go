package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsight/analysis"
	"cropsight/disease"
	"cropsight/pipeline"
	"cropsight/raster"
)

func testApp(c disease.Classifier) *App {
	return &App{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		detector: disease.NewDetector(c, nil, nil),
	}
}

func diseaseBody(t *testing.T, h, w, bands int) *bytes.Buffer {
	t.Helper()
	req := detectDiseaseReq{Image: rasterPayload{
		Height: h, Width: w, Bands: bands,
		Pixels: make([]float64, h*w*bands),
	}}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleDetectDisease_ReturnsResult(t *testing.T) {
	app := testApp(disease.ClassifyFunc(func(context.Context, *raster.Raster) ([]float64, error) {
		return []float64{0.05, 0.85, 0.04, 0.03, 0.02, 0.01}, nil
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/disease", diseaseBody(t, 4, 4, 3))
	w := httptest.NewRecorder()
	app.handleDetectDisease(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var res disease.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.DiseaseDetected)
	assert.Equal(t, "bacterial_blight", res.Disease)
	assert.NotNil(t, res.Treatment)
}

func TestHandleDetectDisease_BadPayload(t *testing.T) {
	app := testApp(nil)

	r := httptest.NewRequest(http.MethodPost, "/api/disease", bytes.NewBufferString("{broken"))
	w := httptest.NewRecorder()
	app.handleDetectDisease(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Shape mismatch between declared size and pixel count.
	req := detectDiseaseReq{Image: rasterPayload{Height: 4, Width: 4, Bands: 3, Pixels: make([]float64, 5)}}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodPost, "/api/disease", bytes.NewBuffer(body))
	w = httptest.NewRecorder()
	app.handleDetectDisease(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDetectDisease_ClassifierFailureIsBadGateway(t *testing.T) {
	app := testApp(disease.ClassifyFunc(func(context.Context, *raster.Raster) ([]float64, error) {
		return nil, errors.New("inference backend down")
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/disease", diseaseBody(t, 4, 4, 3))
	w := httptest.NewRecorder()
	app.handleDetectDisease(w, r)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid raster", raster.ErrInvalidInput, http.StatusBadRequest},
		{"insufficient data", analysis.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"boundary failure", &pipeline.BoundaryError{Op: "scorer", Err: errors.New("down")}, http.StatusBadGateway},
		{"anything else", errors.New("misc"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromErr(tt.err))
		})
	}
}
