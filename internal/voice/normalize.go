package voice

import (
	"encoding/json"
	"time"

	"github.com/rapid-dispatch/backend/internal/models"
)

// Normalize converts raw vendor events into transcript segments and
// caller emotion frames. Unknown event types and malformed emotion
// payloads are dropped silently; the pipeline has to work with whatever
// survives.
func Normalize(events []Event) ([]models.TranscriptSegment, []models.EmotionFrame) {
	var segments []models.TranscriptSegment
	var frames []models.EmotionFrame

	for _, ev := range events {
		var role string
		switch ev.Type {
		case EventUserMessage:
			role = "caller"
		case EventAgentMessage:
			role = "assistant"
		default:
			continue
		}

		segment := models.TranscriptSegment{
			Role:      role,
			Text:      ev.MessageText,
			Timestamp: time.UnixMilli(ev.Timestamp).UTC(),
		}

		if role == "caller" {
			if frame := decodeEmotions(ev.EmotionFeatures); len(frame) > 0 {
				segment.Emotions = frame
				frames = append(frames, frame)
			}
		}

		segments = append(segments, segment)
	}

	return segments, frames
}

func decodeEmotions(raw string) models.EmotionFrame {
	if raw == "" {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	frame := models.EmotionFrame{}
	for name, v := range decoded {
		score, ok := v.(float64)
		if !ok {
			continue
		}
		frame[name] = score
	}
	return frame
}
