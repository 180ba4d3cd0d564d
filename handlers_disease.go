package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleDetectDisease runs the disease wrapper over a single field photo.
// Detection is stateless: nothing is persisted.
func (a *App) handleDetectDisease(w http.ResponseWriter, r *http.Request) {
	var req detectDiseaseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	img, err := req.Image.toRaster()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := a.detector.Detect(ctx, img)
	if err != nil {
		a.log.Warn("disease detection failed", "err", err)
		http.Error(w, err.Error(), statusFromErr(err))
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}
