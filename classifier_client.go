// file: classifier_client.go
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

// classifierClient calls the external disease-model service. It implements
// disease.Classifier and receives an already prepared (square, normalized)
// image from the detector.
type classifierClient struct {
	baseURL string
	http    *http.Client
}

func newClassifierClient(baseURL string) *classifierClient {
	if baseURL == "" || baseURL == "local" {
		baseURL = "http://127.0.0.1:8001"
	}
	return &classifierClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 25 * time.Second},
	}
}

type classifyReq struct {
	Size     int       `json:"size"`
	Channels int       `json:"channels"`
	Pixels   []float64 `json:"pixels"` // row-major, channel interleaved, [0,1]
}

type classifyResp struct {
	Probabilities []float64 `json:"probabilities"`
}

// Classify posts the prepared image to {ClassifierURI}/classify.
func (c *classifierClient) Classify(ctx context.Context, img *raster.Raster) ([]float64, error) {
	body, err := json.Marshal(classifyReq{Size: img.Height, Channels: img.Bands, Pixels: img.Pixels})
	if err != nil {
		return nil, fmt.Errorf("marshal classifier req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classifier non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out classifyResp
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode classifier resp: %w", err)
	}
	return out.Probabilities, nil
}
