package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// obsSeries builds daily observations from a score slice.
func obsSeries(scores []float64) []Observation {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]Observation, len(scores))
	for i, s := range scores {
		obs[i] = Observation{Date: start.AddDate(0, 0, i), Score: s}
	}
	return obs
}

func TestAnalyze_RequiresTwoObservations(t *testing.T) {
	_, err := Analyze(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Analyze(obsSeries([]float64{0.5}))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyze_TrendDirection(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"monotonically increasing", []float64{0.1, 0.2, 0.3, 0.4, 0.5}, TrendImproving},
		{"monotonically decreasing", []float64{0.8, 0.6, 0.4, 0.2}, TrendDeclining},
		{"constant series, zero slope counts as declining", []float64{0.5, 0.5, 0.5}, TrendDeclining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := Analyze(obsSeries(tt.scores))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rep.Trend)
		})
	}
}

func TestAnalyze_MeanAndRate(t *testing.T) {
	rep, err := Analyze(obsSeries([]float64{0.2, 0.4, 0.6, 0.8}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rep.MeanHealth, 1e-9)
	assert.InDelta(t, 0.2, rep.TrendRate, 1e-9)
	assert.Equal(t, TrendImproving, rep.Trend)
	assert.Empty(t, rep.Anomalies)
}

func TestAnalyze_FlagsSevereDrop(t *testing.T) {
	scores := []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.1}
	rep, err := Analyze(obsSeries(scores))
	require.NoError(t, err)

	require.Len(t, rep.Anomalies, 1)
	a := rep.Anomalies[0]
	assert.InDelta(t, 0.1, a.Score, 1e-9)
	// Threshold ≈ 0.308, high cut ≈ 0.247; 0.1 is well below both.
	assert.Equal(t, SeverityHigh, a.Severity)
}

func TestAnalyze_MediumSeverityBetweenCuts(t *testing.T) {
	// mean ≈ 0.4767, σ ≈ 0.066: threshold ≈ 0.3447, high cut ≈ 0.2757.
	// 0.29 lands between the two.
	scores := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.29}
	rep, err := Analyze(obsSeries(scores))
	require.NoError(t, err)

	require.Len(t, rep.Anomalies, 1)
	assert.Equal(t, SeverityMedium, rep.Anomalies[0].Severity)
}

func TestAnalyze_NegativeThresholdYieldsNoAnomalies(t *testing.T) {
	// High spread drives mean - 2σ below zero; scores in [0,1] can then
	// never be anomalous.
	rep, err := Analyze(obsSeries([]float64{0.9, 0.1, 0.9, 0.1}))
	require.NoError(t, err)
	assert.Empty(t, rep.Anomalies)
}

func TestAnalyze_AnomaliesKeepInputOrder(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.15}
	rep, err := Analyze(obsSeries(scores))
	require.NoError(t, err)

	require.Len(t, rep.Anomalies, 2)
	assert.InDelta(t, 0.1, rep.Anomalies[0].Score, 1e-9)
	assert.InDelta(t, 0.15, rep.Anomalies[1].Score, 1e-9)
	assert.True(t, rep.Anomalies[0].Date.Before(rep.Anomalies[1].Date))
}

func TestAnalyze_Idempotent(t *testing.T) {
	obs := obsSeries([]float64{0.7, 0.65, 0.8, 0.3, 0.75})
	first, err := Analyze(obs)
	require.NoError(t, err)
	second, err := Analyze(obs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
