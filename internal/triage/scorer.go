package triage

import (
	"github.com/rapid-dispatch/backend/internal/models"
)

// EmotionWeights maps the dominant emotion to severity boost points per
// unit of mean intensity. Empirical demo tuning, kept as a variable so
// calibrated values can replace it.
var EmotionWeights = map[string]float64{
	"fear":     20,
	"distress": 20,
	"panic":    25,
	"anxiety":  15,
	"anger":    15,
	"sadness":  10,
}

// tierBaseScores maps an extraction that carries a tier but no numeric
// score onto the midpoint of the tier's band, so tier and score stay in
// agreement under the ladder.
var tierBaseScores = map[models.SeverityTier]float64{
	models.SeverityCritical: 90,
	models.SeverityHigh:     70,
	models.SeverityMedium:   50,
	models.SeverityLow:      25,
}

const heuristicBaseScore = 50

// TierForScore maps a 0-100 severity score to its tier. Every place a
// tier is derived from a score goes through here.
func TierForScore(score float64) models.SeverityTier {
	switch {
	case score >= 80:
		return models.SeverityCritical
	case score >= 60:
		return models.SeverityHigh
	case score >= 40:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Score blends the extraction's base severity with the dominant-emotion
// boost and returns the tier plus the clamped 0-100 score. Runs before
// Escalate, which may only raise the score further.
func Score(extraction *models.IncidentExtraction, stats models.EmotionStatistics) (models.SeverityTier, float64) {
	base := float64(heuristicBaseScore)
	if extraction != nil {
		switch {
		case extraction.SeverityScore != nil:
			base = *extraction.SeverityScore
		case extraction.Severity != "":
			if v, ok := tierBaseScores[extraction.Severity]; ok {
				base = v
			}
		case extraction.ConfidenceScore > 0:
			base = extraction.ConfidenceScore * 100
		}
	}

	var boost float64
	if len(stats.TopEmotions) > 0 {
		top := stats.TopEmotions[0]
		boost = EmotionWeights[top.Emotion] * top.AverageIntensity
	}

	score := clamp(base+boost, 0, 100)
	return TierForScore(score), score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
