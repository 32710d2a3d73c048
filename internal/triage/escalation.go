package triage

import (
	"regexp"

	"github.com/rapid-dispatch/backend/internal/models"
)

// ALSUnit is forced to the front of recommended units whenever an
// escalation rule fires.
const ALSUnit = "Advanced Life Support Ambulance"

// EscalationRule force-escalates a call when its pattern appears in the
// transcript. Rules are data, not control flow, so new phrases can be
// added and tested independently.
type EscalationRule struct {
	Pattern         *regexp.Regexp
	MinScore        float64
	Label           string
	Flag            string
	Threat          string
	IncidentType    models.IncidentType
	IncidentSubtype string
}

func phrase(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`)
}

// EscalationRules is evaluated in order; every matching rule applies.
var EscalationRules = []EscalationRule{
	{
		Pattern:         phrase(`heart attack|cardiac arrest|chest pains?|heart stopped`),
		MinScore:        95,
		Label:           "MEDICAL_EMERGENCY",
		Flag:            "CARDIAC_EMERGENCY",
		Threat:          "Possible cardiac arrest in progress",
		IncidentType:    models.IncidentMedical,
		IncidentSubtype: "cardiac emergency",
	},
	{
		Pattern:         phrase(`not breathing|can'?t breathe|stopped breathing|choking`),
		MinScore:        95,
		Label:           "MEDICAL_EMERGENCY",
		Flag:            "RESPIRATORY_EMERGENCY",
		Threat:          "Airway or breathing compromised",
		IncidentType:    models.IncidentMedical,
		IncidentSubtype: "respiratory distress",
	},
	{
		Pattern:         phrase(`gunshot|shot (?:him|her|me|someone)|stabbed|stabbing|bleeding out|lost a lot of blood`),
		MinScore:        92,
		Label:           "MEDICAL_EMERGENCY",
		Flag:            "TRAUMA_EMERGENCY",
		Threat:          "Severe trauma with major bleeding",
		IncidentType:    models.IncidentMedical,
		IncidentSubtype: "penetrating trauma",
	},
	{
		Pattern:         phrase(`fire|burning|on fire|smoke everywhere|flames`),
		MinScore:        90,
		Label:           "FIRE_EMERGENCY",
		Flag:            "ACTIVE_FIRE",
		Threat:          "Active fire reported",
		IncidentType:    models.IncidentFire,
		IncidentSubtype: "structure fire",
	},
	{
		Pattern:         phrase(`shooter|shooting|has a gun|armed|with a knife`),
		MinScore:        93,
		Label:           "CRIME_IN_PROGRESS",
		Flag:            "ARMED_SUSPECT",
		Threat:          "Armed suspect on scene",
		IncidentType:    models.IncidentCrime,
		IncidentSubtype: "armed threat",
	},
	{
		Pattern:         phrase(`overdose|unconscious|not responding|won'?t wake up`),
		MinScore:        90,
		Label:           "MEDICAL_EMERGENCY",
		Flag:            "UNRESPONSIVE_PERSON",
		Threat:          "Person unresponsive",
		IncidentType:    models.IncidentMedical,
		IncidentSubtype: "unresponsive person",
	},
	{
		Pattern:         phrase(`drowning|under the water|fell in the (?:river|lake|pool)`),
		MinScore:        93,
		Label:           "RESCUE_EMERGENCY",
		Flag:            "WATER_RESCUE",
		Threat:          "Person in the water",
		IncidentType:    models.IncidentMedical,
		IncidentSubtype: "drowning",
	},
	{
		Pattern:         phrase(`kill (?:myself|himself|herself)|suicide|jump off`),
		MinScore:        88,
		Label:           "MENTAL_HEALTH_CRISIS",
		Flag:            "SELF_HARM_RISK",
		Threat:          "Self-harm threatened",
		IncidentType:    models.IncidentPublicSafety,
		IncidentSubtype: "suicide threat",
	},
}

// Escalate applies every matching rule to a copy of the analysis and
// returns it. Escalation only ever raises severity: the score is a
// max(), appends use set semantics, and known incident fields are never
// overwritten. With no match the input comes back unchanged.
func Escalate(result models.AnalysisResult, transcript string) models.AnalysisResult {
	fired := false
	for _, rule := range EscalationRules {
		if !rule.Pattern.MatchString(transcript) {
			continue
		}
		if !fired {
			result.Labels = cloneStrings(result.Labels)
			result.Flags = cloneStrings(result.Flags)
			result.ImmediateThreats = cloneStrings(result.ImmediateThreats)
			result.RecommendedUnits = cloneStrings(result.RecommendedUnits)
		}
		fired = true

		if rule.MinScore > result.SeverityScore {
			result.SeverityScore = rule.MinScore
		}
		result.PriorityCode = models.PriorityCode3
		if result.CallerCondition == "" {
			result.CallerCondition = models.ConditionPanicked
		}
		if result.IncidentType == "" {
			result.IncidentType = rule.IncidentType
		}
		if result.IncidentSubtype == "" {
			result.IncidentSubtype = rule.IncidentSubtype
		}
		result.Labels = appendMissing(result.Labels, rule.Label)
		result.Flags = appendMissing(result.Flags, rule.Flag)
		result.ImmediateThreats = appendMissing(result.ImmediateThreats, rule.Threat)
	}

	if !fired {
		return result
	}

	// An escalated call never grades below medium.
	switch {
	case result.SeverityScore >= 80:
		result.Severity = models.SeverityCritical
	case result.SeverityScore >= 60:
		result.Severity = models.SeverityHigh
	default:
		result.Severity = models.SeverityMedium
	}

	result.RecommendedUnits = prepend(result.RecommendedUnits, ALSUnit)
	return result
}

func appendMissing(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// prepend puts v at the front, dropping any existing occurrence.
func prepend(list []string, v string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, v)
	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
