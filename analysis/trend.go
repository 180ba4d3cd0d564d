// Package analysis computes temporal health statistics over scored
// observations and turns them into actionable recommendations.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// ErrInsufficientData is returned when fewer than two observations are given;
// a linear fit and a standard deviation are undefined below that.
var ErrInsufficientData = errors.New("insufficient data for trend analysis")

// Trend directions reported by Analyze.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
)

// Anomaly severities. Medium-severity anomalies are reported but do not
// trigger recommendations on their own.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// severityFactor scales the anomaly threshold for the high-severity cut.
const severityFactor = 0.8

// Observation is one dated health score. Scores are expected in [0,1];
// the pipeline clamps boundary output before it gets here. Sequences are
// ordered by the caller; duplicate dates are permitted and not deduplicated.
type Observation struct {
	Date  time.Time `bson:"date" json:"date"`
	Score float64   `bson:"score" json:"score"`
}

// Anomaly is an observation whose score fell below the anomaly threshold.
type Anomaly struct {
	Date     time.Time `bson:"date" json:"date"`
	Score    float64   `bson:"score" json:"score"`
	Severity string    `bson:"severity" json:"severity"`
}

// TrendReport summarizes a score series: mean, fitted trend, and anomalies
// in original input order.
type TrendReport struct {
	MeanHealth float64   `bson:"mean_health" json:"mean_health"`
	Trend      string    `bson:"trend" json:"trend"`
	TrendRate  float64   `bson:"trend_rate" json:"trend_rate"`
	Anomalies  []Anomaly `bson:"anomalies" json:"anomalies"`
}

// Analyze computes the mean, the least-squares linear trend, and anomalies
// for an ordered observation sequence.
//
// The slope is fitted against the 0-based position in the given order, not
// the calendar date: callers wanting a date-based trend must pre-sort (and
// the pipeline does). A slope of exactly zero classifies as declining; that
// tie-break is a deliberate contract, not an accident.
//
// The anomaly threshold is mean - 2·σ (population σ). With scores in [0,1]
// the threshold can go negative, in which case no anomaly fires — accepted
// behavior. Severity is high below severityFactor × threshold, else medium.
func Analyze(obs []Observation) (TrendReport, error) {
	if len(obs) < 2 {
		return TrendReport{}, fmt.Errorf("%w: got %d observations, need at least 2", ErrInsufficientData, len(obs))
	}

	scores := make([]float64, len(obs))
	series := make(stats.Series, len(obs))
	for i, o := range obs {
		scores[i] = o.Score
		series[i] = stats.Coordinate{X: float64(i), Y: o.Score}
	}

	mean, err := stats.Mean(scores)
	if err != nil {
		return TrendReport{}, fmt.Errorf("mean: %w", err)
	}
	sigma, err := stats.StandardDeviationPopulation(scores)
	if err != nil {
		return TrendReport{}, fmt.Errorf("stddev: %w", err)
	}
	fitted, err := stats.LinearRegression(series)
	if err != nil {
		return TrendReport{}, fmt.Errorf("linear fit: %w", err)
	}
	// Fitted points sit on the regression line at X = 0,1,2,...; unit X
	// spacing makes the slope the difference of the first two.
	slope := fitted[1].Y - fitted[0].Y

	direction := TrendDeclining
	if slope > 0 {
		direction = TrendImproving
	}

	threshold := mean - 2*sigma
	var anomalies []Anomaly
	for _, o := range obs {
		if o.Score >= threshold {
			continue
		}
		severity := SeverityMedium
		if o.Score < threshold*severityFactor {
			severity = SeverityHigh
		}
		anomalies = append(anomalies, Anomaly{Date: o.Date, Score: o.Score, Severity: severity})
	}

	return TrendReport{
		MeanHealth: mean,
		Trend:      direction,
		TrendRate:  slope,
		Anomalies:  anomalies,
	}, nil
}
