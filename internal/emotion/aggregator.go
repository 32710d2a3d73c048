package emotion

import (
	"math"
	"sort"

	"github.com/rapid-dispatch/backend/internal/models"
)

// TopEmotionCount caps how many emotions survive aggregation.
const TopEmotionCount = 10

// DistressWeight scales a [0,1] mean intensity into a percentage-point
// distress contribution. Empirical demo tuning, kept as a variable so it
// can be recalibrated without touching the aggregation itself.
var DistressWeight = 20.0

// DistressEmotions is the set of emotions that contribute to the distress
// level.
var DistressEmotions = map[string]struct{}{
	"anxiety":  {},
	"fear":     {},
	"distress": {},
	"panic":    {},
	"anger":    {},
	"sadness":  {},
}

type emotionAcc struct {
	name  string
	sum   float64
	count int
	seen  int
}

// Aggregate reduces a sequence of per-utterance emotion frames into the
// top emotions by mean intensity, an overall average intensity and a
// distress level in [0,100]. The mean for each emotion is taken over the
// frames in which it appeared, not over all frames. Pure and idempotent.
func Aggregate(frames []models.EmotionFrame) models.EmotionStatistics {
	byName := map[string]*emotionAcc{}
	var order []*emotionAcc

	for _, frame := range frames {
		if len(frame) == 0 {
			continue
		}
		// Keys within a frame are visited alphabetically so that
		// first-seen order, and with it tie-breaking, is deterministic.
		names := make([]string, 0, len(frame))
		for name := range frame {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			score := frame[name]
			if name == "" || math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
				continue
			}
			acc, ok := byName[name]
			if !ok {
				acc = &emotionAcc{name: name, seen: len(order)}
				byName[name] = acc
				order = append(order, acc)
			}
			acc.sum += score
			acc.count++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].sum/float64(order[i].count) > order[j].sum/float64(order[j].count)
	})
	if len(order) > TopEmotionCount {
		order = order[:TopEmotionCount]
	}

	stats := models.EmotionStatistics{TopEmotions: []models.EmotionScore{}}
	var intensityTotal, distressTotal float64
	for _, acc := range order {
		mean := acc.sum / float64(acc.count)
		stats.TopEmotions = append(stats.TopEmotions, models.EmotionScore{
			Emotion:          acc.name,
			AverageIntensity: mean,
		})
		intensityTotal += mean
		if _, ok := DistressEmotions[acc.name]; ok {
			distressTotal += mean * DistressWeight
		}
	}

	if len(order) > 0 {
		stats.AverageIntensity = intensityTotal / float64(len(order))
	}
	stats.DistressLevel = math.Min(100, distressTotal)
	return stats
}
