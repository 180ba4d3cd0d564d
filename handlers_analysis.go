package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cropsight/analysis"
	"cropsight/models"
	"cropsight/pipeline"
	"cropsight/raster"
)

// handleAnalyzeField runs the health pipeline over an ordered capture series
// and persists the outcome as an analysis report. The run is synchronous;
// the report is created as "processing" up front so a crash mid-run leaves
// an inspectable record.
func (a *App) handleAnalyzeField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	var req analyzeFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(req.Observations) == 0 {
		http.Error(w, "observations are required", http.StatusBadRequest)
		return
	}
	samples, err := req.toSamples()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	// Ownership check before any work.
	if err := a.fields.FindOne(ctx, bson.M{"_id": oid, "ownerId": uid},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	now := time.Now().UTC()
	rep := models.AnalysisReport{
		OperationID: uuid.NewString(),
		FieldID:     oid,
		OwnerID:     uid,
		Status:      models.ReportStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ins, err := a.reports.InsertOne(ctx, &rep)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	repID := ins.InsertedID.(primitive.ObjectID)

	analyzer := a.analyzer
	if req.SkipFailed {
		analyzer = pipeline.New(a.scorer, pipeline.WithLogger(a.log), pipeline.WithSkipFailed())
	}

	result, err := analyzer.AnalyzeField(ctx, samples)
	if err != nil {
		msg := err.Error()
		a.finishReport(repID, models.ReportStatusError, nil, msg)
		a.log.Warn("field analysis failed", "field", oid.Hex(), "operation", rep.OperationID, "err", err)
		http.Error(w, msg, statusFromErr(err))
		return
	}

	a.finishReport(repID, models.ReportStatusReady, result, "")
	rep.ID = repID
	rep.Status = models.ReportStatusReady
	rep.Result = result
	rep.UpdatedAt = time.Now().UTC()
	_ = json.NewEncoder(w).Encode(rep)
}

// handleGetFieldAnalysis returns the latest analysis report for a field.
func (a *App) handleGetFieldAnalysis(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var rep models.AnalysisReport
	err = a.reports.FindOne(ctx,
		bson.M{"fieldId": oid, "ownerId": uid},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&rep)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(rep)
}

// finishReport records the terminal state of an analysis run. A failed
// update is logged, not surfaced: the caller already has the result.
func (a *App) finishReport(id primitive.ObjectID, status models.ReportStatus, result *pipeline.FieldAnalysis, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if result != nil {
		set["result"] = result
	}
	if errMsg != "" {
		set["errorMessage"] = errMsg
	}
	if _, err := a.reports.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		a.log.Error("report update failed", "report", id.Hex(), "err", err)
	}
}

// statusFromErr maps pipeline failures to HTTP statuses: malformed input is
// the caller's fault, too few observations is unprocessable, and a failed
// external model call is a bad gateway.
func statusFromErr(err error) int {
	var boundary *pipeline.BoundaryError
	switch {
	case errors.Is(err, raster.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.As(err, &boundary):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
