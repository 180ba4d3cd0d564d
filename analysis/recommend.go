package analysis

// Recommendation priorities and action types.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	ActionIrrigation   = "irrigation"
	ActionInspection   = "inspection"
	ActionIntervention = "intervention"
)

// Rule thresholds for recommendation generation.
const (
	lowHealthThreshold    = 0.5
	decliningRateAbsLimit = 0.1
)

// Recommendation is one prioritized action derived from a trend report.
type Recommendation struct {
	Priority string `bson:"priority" json:"priority"`
	Type     string `bson:"type" json:"type"`
	Message  string `bson:"message" json:"message"`
	Action   string `bson:"action" json:"action"`
}

// Recommend maps a trend report to an action list. The three rules fire
// independently and output keeps generation order; it is not re-sorted by
// priority. Medium-severity anomalies alone never trigger a recommendation.
func Recommend(report TrendReport) []Recommendation {
	var recs []Recommendation

	if report.MeanHealth < lowHealthThreshold {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Type:     ActionIrrigation,
			Message:  "Critical: Low vegetation health detected. Immediate irrigation recommended.",
			Action:   "Check soil moisture and irrigate within 24 hours",
		})
	}

	if report.Trend == TrendDeclining && abs(report.TrendRate) > decliningRateAbsLimit {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Type:     ActionInspection,
			Message:  "Declining crop health trend detected.",
			Action:   "Inspect field for pest/disease signs",
		})
	}

	for _, a := range report.Anomalies {
		if a.Severity != SeverityHigh {
			continue
		}
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Type:     ActionIntervention,
			Message:  "Severe health drop detected on " + a.Date.Format("2006-01-02"),
			Action:   "Investigate affected area immediately",
		})
	}

	return recs
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
