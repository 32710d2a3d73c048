package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rapid-dispatch/backend/internal/emotion"
	"github.com/rapid-dispatch/backend/internal/extract"
	"github.com/rapid-dispatch/backend/internal/geocode"
	"github.com/rapid-dispatch/backend/internal/models"
	"github.com/rapid-dispatch/backend/internal/triage"
)

// Assembler runs the triage pipeline over a call's transcript and
// emotion frames and produces the dispatcher-facing call record.
type Assembler struct {
	Chain    extract.Chain
	Resolver geocode.Resolver
	Logger   zerolog.Logger
}

// unitsByIncident seeds the recommended response units before keyword
// escalation gets a chance to reorder them.
var unitsByIncident = map[models.IncidentType][]string{
	models.IncidentFire:         {"Fire Engine", "Ladder Truck", "Ambulance"},
	models.IncidentMedical:      {"Ambulance", "Paramedic Unit"},
	models.IncidentAccident:     {"Ambulance", "Police Unit", "Fire Engine"},
	models.IncidentCrime:        {"Police Unit"},
	models.IncidentPublicSafety: {"Police Unit", "Ambulance"},
	models.IncidentOther:        {"Police Unit"},
}

var stationKindByIncident = map[models.IncidentType]string{
	models.IncidentFire:     "fire",
	models.IncidentMedical:  "ems",
	models.IncidentAccident: "ems",
	models.IncidentCrime:    "police",
}

// Analyze runs aggregation, extraction, scoring and escalation and
// returns the merged analysis plus the resolved location. It always
// completes: every external failure degrades to the heuristic path.
func (a *Assembler) Analyze(ctx context.Context, segments []models.TranscriptSegment, frames []models.EmotionFrame) (models.AnalysisResult, models.Location) {
	transcript := joinTranscript(segments)
	stats := emotion.Aggregate(frames)

	extraction, method, err := a.Chain.Extract(ctx, transcript)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("extractor chain exhausted, using keyword fallback")
		extraction, _ = extract.MockExtractor{}.Extract(ctx, transcript)
		method = "heuristic"
	}

	tier, score := triage.Score(&extraction, stats)

	result := models.AnalysisResult{
		Labels:              []string{strings.ToUpper(string(extraction.IncidentType))},
		Severity:            tier,
		SeverityScore:       score,
		Confidence:          extraction.ConfidenceScore,
		Flags:               []string{},
		Summary:             extraction.Summary,
		IncidentType:        extraction.IncidentType,
		IncidentSubtype:     extraction.IncidentSubtype,
		PersonsInvolved:     extraction.PersonsInvolved.Count,
		ImmediateThreats:    append([]string{}, extraction.ImmediateThreats...),
		RecommendedUnits:    unitsFor(extraction.IncidentType),
		PriorityCode:        priorityForTier(tier),
		SpecialInstructions: strings.Join(extraction.TimeSensitiveFactors, "; "),
		LocationMentioned:   locationText(extraction.Location),
		CallerCondition:     extraction.CallerCondition,
		EmotionAnalysis:     stats,
		AnalyzedAt:          time.Now().UTC(),
		AnalysisMethod:      method,
	}

	if transcript == "" && method == "heuristic" {
		result.Labels = append(result.Labels, "NO_TRANSCRIPT")
	}

	result = triage.Escalate(result, transcript)

	query := result.LocationMentioned
	if query == "" {
		query = transcript
	}
	location := a.Resolver.Resolve(query)

	if kind, ok := stationKindByIncident[result.IncidentType]; ok {
		station, dist := geocode.NearestStation(location.Lat, location.Lon, kind)
		if station.ID != "" {
			note := fmt.Sprintf("Nearest responder: %s (%.1f km)", station.Name, dist)
			if result.SpecialInstructions == "" {
				result.SpecialInstructions = note
			} else {
				result.SpecialInstructions += "; " + note
			}
		}
	}

	return result, location
}

// Assemble produces a fully populated call record for a new call
// session. Persistence and notification stay with the caller.
func (a *Assembler) Assemble(ctx context.Context, phoneNumber string, segments []models.TranscriptSegment, frames []models.EmotionFrame) models.EmergencyCall {
	analysis, location := a.Analyze(ctx, segments, frames)
	now := time.Now().UTC()

	call := models.EmergencyCall{
		ID:             uuid.NewString(),
		CallerNumber:   phoneNumber,
		Status:         models.StatusActive,
		Location:       location,
		AnalysisResult: analysis,
		Transcript:     segments,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	a.Logger.Info().
		Str("call_id", call.ID).
		Str("severity", string(call.Severity)).
		Float64("severity_score", call.SeverityScore).
		Str("incident_type", string(call.IncidentType)).
		Str("analysis_method", call.AnalysisMethod).
		Msg("call assembled")

	return call
}

// joinTranscript concatenates non-blank segment texts with single
// spaces.
func joinTranscript(segments []models.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func unitsFor(incident models.IncidentType) []string {
	units, ok := unitsByIncident[incident]
	if !ok {
		units = unitsByIncident[models.IncidentOther]
	}
	out := make([]string, len(units))
	copy(out, units)
	return out
}

func priorityForTier(tier models.SeverityTier) string {
	switch tier {
	case models.SeverityCritical:
		return models.PriorityCode3
	case models.SeverityHigh, models.SeverityMedium:
		return models.PriorityCode2
	default:
		return models.PriorityCode1
	}
}

func locationText(loc *models.Location) string {
	if loc == nil {
		return ""
	}
	parts := []string{}
	for _, p := range []string{loc.Address, loc.CrossStreets, loc.Landmarks, loc.City} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
