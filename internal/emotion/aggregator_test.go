package emotion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapid-dispatch/backend/internal/models"
)

func TestAggregateOccurrenceCountDenominator(t *testing.T) {
	frames := []models.EmotionFrame{
		{"fear": 0.9},
		{"fear": 0.7, "distress": 0.5},
	}
	stats := Aggregate(frames)

	require.Len(t, stats.TopEmotions, 2)
	assert.Equal(t, "fear", stats.TopEmotions[0].Emotion)
	assert.InDelta(t, 0.8, stats.TopEmotions[0].AverageIntensity, 1e-9)
	assert.Equal(t, "distress", stats.TopEmotions[1].Emotion)
	assert.InDelta(t, 0.5, stats.TopEmotions[1].AverageIntensity, 1e-9)
	assert.InDelta(t, 26, stats.DistressLevel, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	assert.Empty(t, stats.TopEmotions)
	assert.Zero(t, stats.AverageIntensity)
	assert.Zero(t, stats.DistressLevel)

	stats = Aggregate([]models.EmotionFrame{{}, nil})
	assert.Empty(t, stats.TopEmotions)
	assert.Zero(t, stats.DistressLevel)
}

func TestAggregateDistressClamped(t *testing.T) {
	frames := []models.EmotionFrame{
		{"fear": 50, "panic": 50, "anger": 50, "distress": 50},
	}
	stats := Aggregate(frames)
	assert.Equal(t, 100.0, stats.DistressLevel)
}

func TestAggregateSkipsMalformedScores(t *testing.T) {
	frames := []models.EmotionFrame{
		{"fear": math.NaN(), "joy": 0.4},
		{"anger": -0.2, "": 0.9},
		{"joy": 0.6},
	}
	stats := Aggregate(frames)

	require.Len(t, stats.TopEmotions, 1)
	assert.Equal(t, "joy", stats.TopEmotions[0].Emotion)
	assert.InDelta(t, 0.5, stats.TopEmotions[0].AverageIntensity, 1e-9)
}

func TestAggregateTopTenStableOrder(t *testing.T) {
	frame := models.EmotionFrame{}
	names := []string{"calmness", "joy", "surprise", "awe", "boredom", "confusion", "doubt", "envy", "guilt", "pride", "relief", "shame"}
	for _, n := range names {
		frame[n] = 0.5
	}
	stats := Aggregate([]models.EmotionFrame{frame})

	require.Len(t, stats.TopEmotions, TopEmotionCount)
	// All means tie, so alphabetical first-seen order must be preserved.
	for i, want := range []string{"awe", "boredom", "calmness", "confusion", "doubt", "envy", "guilt", "joy", "pride", "relief"} {
		assert.Equal(t, want, stats.TopEmotions[i].Emotion)
	}
	assert.InDelta(t, 0.5, stats.AverageIntensity, 1e-9)
}

func TestAggregateIdempotent(t *testing.T) {
	frames := []models.EmotionFrame{
		{"fear": 0.9, "sadness": 0.2},
		{"anger": 0.4},
		{"fear": 0.3, "joy": 0.8},
	}
	first := Aggregate(frames)
	second := Aggregate(frames)
	assert.Equal(t, first, second)
}

func TestAggregateAverageIntensityBounds(t *testing.T) {
	frames := []models.EmotionFrame{
		{"fear": 1.0, "calmness": 0.0},
		{"fear": 0.5, "joy": 0.25},
	}
	stats := Aggregate(frames)
	assert.GreaterOrEqual(t, stats.AverageIntensity, 0.0)
	assert.LessOrEqual(t, stats.AverageIntensity, 1.0)
}
