package extract

import (
	"context"
	"strings"

	"github.com/rapid-dispatch/backend/internal/models"
)

const mockConfidence = 0.75

type mockRule struct {
	keywords  []string
	incident  models.IncidentType
	subtype   string
	severity  models.SeverityTier
	threat    string
	questions []string
}

// mockRules is scanned in order; the first keyword hit wins.
var mockRules = []mockRule{
	{
		keywords:  []string{"fire", "burning"},
		incident:  models.IncidentFire,
		subtype:   "structure fire",
		severity:  models.SeverityCritical,
		threat:    "Active fire reported",
		questions: []string{"Is anyone trapped inside?", "What is burning?"},
	},
	{
		keywords:  []string{"accident", "crash", "collision"},
		incident:  models.IncidentAccident,
		subtype:   "vehicle accident",
		severity:  models.SeverityHigh,
		threat:    "Possible injuries from collision",
		questions: []string{"How many vehicles are involved?", "Is anyone trapped or injured?"},
	},
	{
		keywords:  []string{"medical", "heart", "injury"},
		incident:  models.IncidentMedical,
		subtype:   "medical emergency",
		severity:  models.SeverityHigh,
		threat:    "Person requires medical attention",
		questions: []string{"Is the person conscious and breathing?", "What is the person's age?"},
	},
	{
		keywords:  []string{"theft", "robbery", "burglary"},
		incident:  models.IncidentCrime,
		subtype:   "property crime",
		severity:  models.SeverityMedium,
		threat:    "Crime reported",
		questions: []string{"Is the suspect still on scene?", "Was anyone hurt?"},
	},
}

// MockExtractor is the deterministic keyword fallback. It never fails,
// which makes it the guaranteed terminal strategy of the chain.
type MockExtractor struct{}

func (MockExtractor) Name() string { return "heuristic" }

func (MockExtractor) Extract(_ context.Context, transcript string) (models.IncidentExtraction, error) {
	text := strings.ToLower(transcript)

	extraction := models.IncidentExtraction{
		IncidentType:         models.IncidentOther,
		IncidentSubtype:      "unclassified report",
		Severity:             models.SeverityMedium,
		CallerCondition:      models.ConditionUnknown,
		ConfidenceScore:      mockConfidence,
		Summary:              summarize(transcript),
		PersonsInvolved:      models.PersonsInvolved{Descriptions: []string{}},
		ImmediateThreats:     []string{},
		TimeSensitiveFactors: []string{},
		VehiclesInvolved:     []string{},
		WeaponsMentioned:     []string{},
		MissingCriticalInfo:  []string{"exact location", "number of people involved"},
		RecommendedQuestions: []string{"What is the exact address of the emergency?"},
	}

	for _, rule := range mockRules {
		if !containsAny(text, rule.keywords) {
			continue
		}
		extraction.IncidentType = rule.incident
		extraction.IncidentSubtype = rule.subtype
		extraction.Severity = rule.severity
		extraction.ImmediateThreats = []string{rule.threat}
		extraction.RecommendedQuestions = append(rule.questions, extraction.RecommendedQuestions...)
		break
	}

	return extraction, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func summarize(transcript string) string {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return "No transcript available"
	}
	const max = 160
	if len(t) > max {
		return t[:max] + "..."
	}
	return t
}
