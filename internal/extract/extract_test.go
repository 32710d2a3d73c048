package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapid-dispatch/backend/internal/models"
)

func TestMockExtractorKeywords(t *testing.T) {
	cases := []struct {
		transcript   string
		wantType     models.IncidentType
		wantSeverity models.SeverityTier
	}{
		{"There's a fire, my neighbor is trapped inside!", models.IncidentFire, models.SeverityCritical},
		{"the barn is burning", models.IncidentFire, models.SeverityCritical},
		{"two cars in a crash on main street", models.IncidentAccident, models.SeverityHigh},
		{"there was a collision", models.IncidentAccident, models.SeverityHigh},
		{"my husband is having a heart attack", models.IncidentMedical, models.SeverityHigh},
		{"she has a bad leg injury", models.IncidentMedical, models.SeverityHigh},
		{"someone committed a robbery next door", models.IncidentCrime, models.SeverityMedium},
		{"my bike was stolen in a theft", models.IncidentCrime, models.SeverityMedium},
		{"my cat is stuck in a tree", models.IncidentOther, models.SeverityMedium},
	}
	for _, tc := range cases {
		out, err := MockExtractor{}.Extract(context.Background(), tc.transcript)
		require.NoError(t, err, tc.transcript)
		assert.Equal(t, tc.wantType, out.IncidentType, tc.transcript)
		assert.Equal(t, tc.wantSeverity, out.Severity, tc.transcript)
		assert.Equal(t, 0.75, out.ConfidenceScore)
	}
}

func TestMockExtractorNeverFails(t *testing.T) {
	for _, transcript := range []string{"", "   ", "???", "normal words"} {
		out, err := MockExtractor{}.Extract(context.Background(), transcript)
		require.NoError(t, err)
		assert.NotEmpty(t, out.IncidentType)
		assert.NotEmpty(t, out.Severity)
		assert.NotNil(t, out.ImmediateThreats)
		assert.NotNil(t, out.RecommendedQuestions)
	}
}

func TestMockExtractorFirstRuleWins(t *testing.T) {
	out, err := MockExtractor{}.Extract(context.Background(), "a fire started after the crash")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentFire, out.IncidentType)
}

type failingExtractor struct{}

func (failingExtractor) Name() string { return "failing" }
func (failingExtractor) Extract(context.Context, string) (models.IncidentExtraction, error) {
	return models.IncidentExtraction{}, errors.New("boom")
}

func TestChainFallsBackToMock(t *testing.T) {
	chain := Chain{Extractors: []Extractor{failingExtractor{}, MockExtractor{}}}
	out, method, err := chain.Extract(context.Background(), "there is a fire")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", method)
	assert.Equal(t, models.IncidentFire, out.IncidentType)
}

func TestChainPrefersFirstSuccess(t *testing.T) {
	chain := Chain{Extractors: []Extractor{MockExtractor{}, failingExtractor{}}}
	_, method, err := chain.Extract(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", method)
}

func TestNormalizeExtractionEnumsAndClamps(t *testing.T) {
	score := 140.0
	out := normalizeExtraction(models.IncidentExtraction{
		IncidentType:    "structure fire",
		Severity:        "catastrophic",
		CallerCondition: "screaming",
		ConfidenceScore: 1.7,
		SeverityScore:   &score,
		Location:        &models.Location{Confidence: -0.5},
	})
	assert.Equal(t, models.IncidentFire, out.IncidentType)
	assert.Equal(t, models.SeverityMedium, out.Severity)
	assert.Equal(t, models.ConditionUnknown, out.CallerCondition)
	assert.Equal(t, 1.0, out.ConfidenceScore)
	assert.Equal(t, 100.0, *out.SeverityScore)
	assert.Equal(t, 0.0, out.Location.Confidence)
	assert.NotNil(t, out.ImmediateThreats)
	assert.NotNil(t, out.MissingCriticalInfo)
}

func TestParseExtractionJSONWithProse(t *testing.T) {
	content := "Here is the analysis:\n{\"incident_type\": \"fire\", \"severity\": \"critical\", \"confidence_score\": 0.9}\nLet me know if you need more."
	out, err := parseExtractionJSON(content)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentFire, out.IncidentType)
	assert.Equal(t, models.SeverityCritical, out.Severity)
}

func TestParseExtractionJSONMalformed(t *testing.T) {
	_, err := parseExtractionJSON("no json here")
	assert.Error(t, err)

	_, err = parseExtractionJSON("{broken")
	assert.Error(t, err)
}
