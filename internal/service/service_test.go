package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapid-dispatch/backend/internal/extract"
	"github.com/rapid-dispatch/backend/internal/geocode"
	"github.com/rapid-dispatch/backend/internal/models"
	"github.com/rapid-dispatch/backend/internal/triage"
	"github.com/rapid-dispatch/backend/internal/voice"
)

func testAssembler() *Assembler {
	return &Assembler{
		Chain:    extract.Chain{Extractors: []extract.Extractor{extract.MockExtractor{}}},
		Resolver: geocode.NewGazetteerResolver(),
		Logger:   zerolog.Nop(),
	}
}

func segmentsFor(texts ...string) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, 0, len(texts))
	for _, t := range texts {
		out = append(out, models.TranscriptSegment{Role: "caller", Text: t})
	}
	return out
}

func TestAssembleFireScenario(t *testing.T) {
	call := testAssembler().Assemble(context.Background(), "+15555550100",
		segmentsFor("There's a fire, my neighbor is trapped inside!"), nil)

	assert.NotEmpty(t, call.ID)
	assert.Equal(t, models.StatusActive, call.Status)
	assert.Equal(t, models.IncidentFire, call.IncidentType)
	assert.Equal(t, models.SeverityCritical, call.Severity)
	assert.GreaterOrEqual(t, call.SeverityScore, 90.0)
	assert.Contains(t, call.Flags, "ACTIVE_FIRE")
	assert.Equal(t, models.PriorityCode3, call.PriorityCode)
	assert.Equal(t, triage.TierForScore(call.SeverityScore), call.Severity)
	assert.False(t, call.CreatedAt.IsZero())
}

func TestAssembleHeartAttackScenario(t *testing.T) {
	call := testAssembler().Assemble(context.Background(), "+15555550101",
		segmentsFor("My husband is having a heart attack"), nil)

	assert.GreaterOrEqual(t, call.SeverityScore, 95.0)
	assert.Equal(t, models.PriorityCode3, call.PriorityCode)
	require.NotEmpty(t, call.RecommendedUnits)
	assert.Equal(t, triage.ALSUnit, call.RecommendedUnits[0])
	assert.Contains(t, call.Flags, "CARDIAC_EMERGENCY")
}

func TestAssembleEmptyCall(t *testing.T) {
	call := testAssembler().Assemble(context.Background(), "+15555550102", nil, nil)

	assert.Contains(t, call.Labels, "NO_TRANSCRIPT")
	assert.Empty(t, call.EmotionAnalysis.TopEmotions)
	assert.Zero(t, call.EmotionAnalysis.DistressLevel)
	assert.Equal(t, "heuristic", call.AnalysisMethod)
	assert.Equal(t, 0.1, call.Location.Confidence)
}

func TestAnalyzeEmotionBoostRaisesSeverity(t *testing.T) {
	frames := []models.EmotionFrame{{"panic": 0.9}, {"panic": 0.9, "fear": 0.8}}
	analysis, _ := testAssembler().Analyze(context.Background(),
		segmentsFor("please hurry something is wrong"), frames)

	// other/medium base 50 + panic boost 25*0.9
	assert.InDelta(t, 72.5, analysis.SeverityScore, 1e-9)
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.Equal(t, triage.TierForScore(analysis.SeverityScore), analysis.Severity)
}

func TestAnalyzeResolvesGazetteerLocation(t *testing.T) {
	analysis, location := testAssembler().Analyze(context.Background(),
		segmentsFor("there was an accident near union square"), nil)

	assert.Equal(t, models.IncidentAccident, analysis.IncidentType)
	assert.Equal(t, "Union Square", location.Address)
	assert.Equal(t, 0.8, location.Confidence)
	assert.Contains(t, analysis.SpecialInstructions, "Nearest responder")
}

func TestJoinTranscriptDropsBlankSegments(t *testing.T) {
	segments := []models.TranscriptSegment{
		{Text: "  help  "},
		{Text: "   "},
		{Text: ""},
		{Text: "there's smoke"},
	}
	assert.Equal(t, "help there's smoke", joinTranscript(segments))
}

func TestMergeAnalysisIsAdditive(t *testing.T) {
	prev := models.AnalysisResult{
		IncidentType:     models.IncidentFire,
		Severity:         models.SeverityCritical,
		SeverityScore:    92,
		PriorityCode:     models.PriorityCode3,
		Labels:           []string{"NO_TRANSCRIPT"},
		Flags:            []string{"ACTIVE_FIRE"},
		ImmediateThreats: []string{"Active fire reported"},
		RecommendedUnits: []string{"fire_engine"},
	}
	next := models.AnalysisResult{
		IncidentType:     models.IncidentOther,
		Severity:         models.SeverityMedium,
		SeverityScore:    50,
		PriorityCode:     models.PriorityCode2,
		Flags:            []string{"ACTIVE_FIRE", "PEOPLE_TRAPPED"},
		RecommendedUnits: []string{"ladder_truck", "fire_engine"},
	}

	merged := MergeAnalysis(prev, next)

	assert.Equal(t, models.IncidentFire, merged.IncidentType)
	assert.Equal(t, 92.0, merged.SeverityScore)
	assert.Equal(t, models.SeverityCritical, merged.Severity)
	assert.Equal(t, models.PriorityCode3, merged.PriorityCode)
	assert.ElementsMatch(t, []string{"ACTIVE_FIRE", "PEOPLE_TRAPPED"}, merged.Flags)
	assert.Contains(t, merged.Labels, "NO_TRANSCRIPT")
	assert.Equal(t, []string{"ladder_truck", "fire_engine"}, merged.RecommendedUnits)
	assert.Contains(t, merged.ImmediateThreats, "Active fire reported")
}

func TestMergeAnalysisPrefersFresherHigherSeverity(t *testing.T) {
	prev := models.AnalysisResult{Severity: models.SeverityLow, SeverityScore: 20}
	next := models.AnalysisResult{
		IncidentType:  models.IncidentMedical,
		Severity:      models.SeverityHigh,
		SeverityScore: 75,
	}

	merged := MergeAnalysis(prev, next)

	assert.Equal(t, models.IncidentMedical, merged.IncidentType)
	assert.Equal(t, 75.0, merged.SeverityScore)
	assert.Equal(t, triage.TierForScore(merged.SeverityScore), merged.Severity)
}

type stubFetcher struct {
	events []voice.Event
	err    error
}

func (s stubFetcher) FetchEvents(context.Context, string) ([]voice.Event, error) {
	return s.events, s.err
}

func TestAnalyzeConversation(t *testing.T) {
	analyzer := &ConversationAnalyzer{
		Events: stubFetcher{events: []voice.Event{
			{Type: voice.EventUserMessage, MessageText: "my kitchen is on fire", EmotionFeatures: `{"fear": 0.95}`},
			{Type: voice.EventAgentMessage, MessageText: "units are on the way"},
		}},
		Assembler: testAssembler(),
		Logger:    zerolog.Nop(),
	}

	analysis := analyzer.AnalyzeConversation(context.Background(), "group-1")
	assert.Equal(t, models.IncidentFire, analysis.IncidentType)
	assert.Contains(t, analysis.Flags, "ACTIVE_FIRE")
	require.NotEmpty(t, analysis.EmotionAnalysis.TopEmotions)
	assert.Equal(t, "fear", analysis.EmotionAnalysis.TopEmotions[0].Emotion)
}

func TestAnalyzeConversationVendorFailureDegrades(t *testing.T) {
	analyzer := &ConversationAnalyzer{
		Events:    stubFetcher{err: errors.New("vendor down")},
		Assembler: testAssembler(),
		Logger:    zerolog.Nop(),
	}

	analysis := analyzer.AnalyzeConversation(context.Background(), "group-2")
	assert.Equal(t, "heuristic", analysis.AnalysisMethod)
	assert.Contains(t, analysis.Labels, "NO_TRANSCRIPT")
	assert.Equal(t, triage.TierForScore(analysis.SeverityScore), analysis.Severity)
}
