// file: scorer_client.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cropsight/raster"
)

// scorerClient calls the external health-model service. It implements
// pipeline.Scorer. Timeouts surface as errors; the pipeline never retries.
type scorerClient struct {
	baseURL string
	http    *http.Client
}

func newScorerClient(baseURL string) *scorerClient {
	if baseURL == "" || baseURL == "local" {
		baseURL = "http://127.0.0.1:8000"
	}
	return &scorerClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 25 * time.Second},
	}
}

type scoreReq struct {
	Height  int       `json:"height"`
	Width   int       `json:"width"`
	Indices []float64 `json:"indices"` // row-major, NDVI/EVI interleaved
}

type scoreResp struct {
	Score float64 `json:"score"`
}

// Score posts the normalized index raster to {ScorerURI}/score.
func (c *scorerClient) Score(ctx context.Context, ir *raster.IndexRaster) (float64, error) {
	body, err := json.Marshal(scoreReq{Height: ir.Height, Width: ir.Width, Indices: ir.Pixels})
	if err != nil {
		return 0, fmt.Errorf("marshal scorer req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("scorer call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("scorer non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out scoreResp
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode scorer resp: %w", err)
	}
	return out.Score, nil
}
