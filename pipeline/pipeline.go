// Package pipeline runs the field-health analysis chain: multi-band captures
// are turned into index rasters, scored through an injected capability, and
// the ordered score series is handed to trend analysis and recommendation
// generation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cropsight/analysis"
	"cropsight/raster"
)

// Scorer is the external health-model boundary: it maps a normalized index
// raster to a scalar health score. Implementations are expected to honor the
// context; the pipeline never retries a failed or timed-out call.
type Scorer interface {
	Score(ctx context.Context, ir *raster.IndexRaster) (float64, error)
}

// ScoreFunc adapts a plain function to the Scorer interface.
type ScoreFunc func(ctx context.Context, ir *raster.IndexRaster) (float64, error)

// Score implements Scorer.
func (f ScoreFunc) Score(ctx context.Context, ir *raster.IndexRaster) (float64, error) {
	return f(ctx, ir)
}

// BoundaryError wraps a failed external capability call (scorer or
// classifier). The original error is preserved for errors.Is/As.
type BoundaryError struct {
	Op  string
	Err error
}

func (e *BoundaryError) Error() string { return fmt.Sprintf("%s call failed: %v", e.Op, e.Err) }
func (e *BoundaryError) Unwrap() error { return e.Err }

// Sample is one dated capture awaiting scoring.
type Sample struct {
	Date   time.Time
	Raster *raster.Raster
}

// FieldAnalysis is the structured result of a full field-health run.
type FieldAnalysis struct {
	HealthScores    []float64                 `bson:"health_scores" json:"health_scores"`
	Analysis        analysis.TrendReport      `bson:"analysis" json:"analysis"`
	Recommendations []analysis.Recommendation `bson:"recommendations" json:"recommendations"`
}

// Analyzer drives the scoring pipeline for one field at a time. Per-sample
// scoring is independent and fans out across workers; results are reassembled
// in input order before trend analysis, since the slope is positional.
type Analyzer struct {
	scorer     Scorer
	log        *slog.Logger
	workers    int
	skipFailed bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for clamp warnings and skip notices.
func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithWorkers bounds the scoring fan-out. Values below 1 mean serial.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithSkipFailed makes AnalyzeField drop samples whose extraction or scoring
// failed instead of aborting the whole batch. Skips are logged.
func WithSkipFailed() Option {
	return func(a *Analyzer) { a.skipFailed = true }
}

// New builds an Analyzer around the injected scorer.
func New(scorer Scorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		scorer:  scorer,
		log:     slog.Default(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeField scores every sample, analyzes the resulting series, and
// generates recommendations. Samples must already be ordered by capture date.
//
// Without WithSkipFailed, the first per-sample failure aborts the run. With
// it, failed samples are dropped (order preserved) and the run continues;
// ending up with fewer than two usable scores still fails with
// analysis.ErrInsufficientData.
func (a *Analyzer) AnalyzeField(ctx context.Context, samples []Sample) (*FieldAnalysis, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: got 0 observations, need at least 2", analysis.ErrInsufficientData)
	}

	scores := make([]float64, len(samples))
	errs := make([]error, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, s := range samples {
		g.Go(func() error {
			score, err := a.scoreSample(gctx, s)
			if err != nil {
				if a.skipFailed {
					errs[i] = err
					return nil
				}
				return fmt.Errorf("sample %d (%s): %w", i, s.Date.Format("2006-01-02"), err)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	obs := make([]analysis.Observation, 0, len(samples))
	health := make([]float64, 0, len(samples))
	for i, s := range samples {
		if errs[i] != nil {
			a.log.Warn("skipping failed sample",
				"index", i, "date", s.Date.Format("2006-01-02"), "err", errs[i])
			continue
		}
		obs = append(obs, analysis.Observation{Date: s.Date, Score: scores[i]})
		health = append(health, scores[i])
	}

	report, err := analysis.Analyze(obs)
	if err != nil {
		return nil, err
	}

	return &FieldAnalysis{
		HealthScores:    health,
		Analysis:        report,
		Recommendations: analysis.Recommend(report),
	}, nil
}

// scoreSample extracts indices and calls the scorer for one capture. Scores
// outside [0,1] are clamped with a warning rather than failing the sample;
// downstream statistics assume bounded input.
func (a *Analyzer) scoreSample(ctx context.Context, s Sample) (float64, error) {
	ir, err := raster.ComputeIndices(s.Raster)
	if err != nil {
		return 0, err
	}
	score, err := a.scorer.Score(ctx, ir)
	if err != nil {
		return 0, &BoundaryError{Op: "scorer", Err: err}
	}
	if score < 0 || score > 1 {
		clamped := clamp01(score)
		a.log.Warn("scorer returned out-of-range score, clamping",
			"date", s.Date.Format("2006-01-02"), "score", score, "clamped", clamped)
		score = clamped
	}
	return score, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
