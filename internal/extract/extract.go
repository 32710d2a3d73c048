package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/rapid-dispatch/backend/internal/models"
)

// Extractor turns a free-text transcript into a structured incident
// record.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, transcript string) (models.IncidentExtraction, error)
}

// Chain tries each extractor in order and returns the first success plus
// the name of the strategy that produced it. The terminal strategy is
// expected to never fail, so a fully exhausted chain is a wiring bug.
type Chain struct {
	Extractors []Extractor
}

func (c Chain) Extract(ctx context.Context, transcript string) (models.IncidentExtraction, string, error) {
	var lastErr error
	for _, e := range c.Extractors {
		out, err := e.Extract(ctx, transcript)
		if err == nil {
			return normalizeExtraction(out), e.Name(), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("extractor chain is empty")
	}
	return models.IncidentExtraction{}, "", lastErr
}

// normalizeExtraction validates the model's output at the boundary:
// closed enums fall back to their defaults and numeric fields are
// clamped, so nothing downstream needs to re-check shapes.
func normalizeExtraction(e models.IncidentExtraction) models.IncidentExtraction {
	switch e.IncidentType {
	case models.IncidentFire, models.IncidentMedical, models.IncidentAccident,
		models.IncidentCrime, models.IncidentPublicSafety, models.IncidentOther:
	default:
		e.IncidentType = normalizeIncidentType(string(e.IncidentType))
	}

	switch e.Severity {
	case models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
	default:
		e.Severity = models.SeverityMedium
	}

	switch e.CallerCondition {
	case models.ConditionCalm, models.ConditionDistressed, models.ConditionPanicked,
		models.ConditionInjured, models.ConditionUnresponsive, models.ConditionUnknown:
	default:
		e.CallerCondition = models.ConditionUnknown
	}

	if e.ConfidenceScore < 0 {
		e.ConfidenceScore = 0
	}
	if e.ConfidenceScore > 1 {
		e.ConfidenceScore = 1
	}
	if e.SeverityScore != nil {
		v := *e.SeverityScore
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		e.SeverityScore = &v
	}
	if e.Location != nil {
		if e.Location.Confidence < 0 {
			e.Location.Confidence = 0
		}
		if e.Location.Confidence > 1 {
			e.Location.Confidence = 1
		}
	}

	if e.ImmediateThreats == nil {
		e.ImmediateThreats = []string{}
	}
	if e.TimeSensitiveFactors == nil {
		e.TimeSensitiveFactors = []string{}
	}
	if e.VehiclesInvolved == nil {
		e.VehiclesInvolved = []string{}
	}
	if e.WeaponsMentioned == nil {
		e.WeaponsMentioned = []string{}
	}
	if e.MissingCriticalInfo == nil {
		e.MissingCriticalInfo = []string{}
	}
	if e.RecommendedQuestions == nil {
		e.RecommendedQuestions = []string{}
	}
	if e.PersonsInvolved.Descriptions == nil {
		e.PersonsInvolved.Descriptions = []string{}
	}
	return e
}

func normalizeIncidentType(value string) models.IncidentType {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(v, "fire"):
		return models.IncidentFire
	case strings.Contains(v, "medical"), strings.Contains(v, "health"):
		return models.IncidentMedical
	case strings.Contains(v, "accident"), strings.Contains(v, "collision"), strings.Contains(v, "crash"):
		return models.IncidentAccident
	case strings.Contains(v, "crime"), strings.Contains(v, "assault"), strings.Contains(v, "theft"):
		return models.IncidentCrime
	case strings.Contains(v, "public"), strings.Contains(v, "safety"), strings.Contains(v, "hazard"):
		return models.IncidentPublicSafety
	default:
		return models.IncidentOther
	}
}
