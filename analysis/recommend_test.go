package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_LowMeanHealthTriggersIrrigation(t *testing.T) {
	recs := Recommend(TrendReport{MeanHealth: 0.3, Trend: TrendImproving, TrendRate: 0.05})

	require.Len(t, recs, 1)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, ActionIrrigation, recs[0].Type)
}

func TestRecommend_DecliningTrendTriggersInspection(t *testing.T) {
	recs := Recommend(TrendReport{MeanHealth: 0.7, Trend: TrendDeclining, TrendRate: -0.2})

	require.Len(t, recs, 1)
	assert.Equal(t, PriorityMedium, recs[0].Priority)
	assert.Equal(t, ActionInspection, recs[0].Type)
}

func TestRecommend_SlowDeclineStaysQuiet(t *testing.T) {
	recs := Recommend(TrendReport{MeanHealth: 0.7, Trend: TrendDeclining, TrendRate: -0.05})
	assert.Empty(t, recs)
}

func TestRecommend_BothRulesFireInDeclarationOrder(t *testing.T) {
	recs := Recommend(TrendReport{MeanHealth: 0.3, Trend: TrendDeclining, TrendRate: -0.2})

	require.Len(t, recs, 2)
	assert.Equal(t, ActionIrrigation, recs[0].Type)
	assert.Equal(t, ActionInspection, recs[1].Type)
}

func TestRecommend_HighSeverityAnomaliesGetInterventions(t *testing.T) {
	d1 := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)
	report := TrendReport{
		MeanHealth: 0.8,
		Trend:      TrendImproving,
		TrendRate:  0.02,
		Anomalies: []Anomaly{
			{Date: d1, Score: 0.1, Severity: SeverityHigh},
			{Date: d2, Score: 0.3, Severity: SeverityMedium},
		},
	}

	recs := Recommend(report)

	// Only the high-severity anomaly produces a recommendation; medium ones
	// are reported in the trend output but never acted on here.
	require.Len(t, recs, 1)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, ActionIntervention, recs[0].Type)
	assert.Contains(t, recs[0].Message, "2025-06-10")
}

func TestRecommend_HealthyReportIsEmpty(t *testing.T) {
	recs := Recommend(TrendReport{MeanHealth: 0.85, Trend: TrendImproving, TrendRate: 0.01})
	assert.Empty(t, recs)
}
