package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rapid-dispatch/backend/internal/models"
	"github.com/rapid-dispatch/backend/internal/triage"
	"github.com/rapid-dispatch/backend/internal/voice"
)

// EventsFetcher is the slice of the voice vendor client the analyzer
// needs.
type EventsFetcher interface {
	FetchEvents(ctx context.Context, chatGroupID string) ([]voice.Event, error)
}

// ConversationAnalyzer pulls a conversation's events from the voice
// vendor and runs the triage pipeline over them.
type ConversationAnalyzer struct {
	Events    EventsFetcher
	Assembler *Assembler
	Logger    zerolog.Logger
}

// AnalyzeConversation fetches and normalizes the vendor events for a
// chat group, then analyzes them. A vendor failure degrades to an
// emotion-only heuristic pass over whatever we have; the dispatcher
// always gets an analysis.
func (c *ConversationAnalyzer) AnalyzeConversation(ctx context.Context, chatGroupID string) models.AnalysisResult {
	var segments []models.TranscriptSegment
	var frames []models.EmotionFrame

	events, err := c.Events.FetchEvents(ctx, chatGroupID)
	if err != nil {
		c.Logger.Warn().Err(err).Str("chat_group_id", chatGroupID).Msg("vendor events unavailable, analyzing without transcript")
	} else {
		segments, frames = voice.Normalize(events)
	}

	analysis, _ := c.Assembler.Analyze(ctx, segments, frames)
	return analysis
}

// MergeAnalysis folds a fresh analysis pass into an earlier one.
// Merging is strictly additive: labels, flags and threats from the
// earlier pass are never dropped, and severity can only go up.
func MergeAnalysis(prev, next models.AnalysisResult) models.AnalysisResult {
	out := next
	out.Labels = unionStrings(next.Labels, prev.Labels)
	out.Flags = unionStrings(next.Flags, prev.Flags)
	out.ImmediateThreats = unionStrings(next.ImmediateThreats, prev.ImmediateThreats)
	out.RecommendedUnits = unionStrings(next.RecommendedUnits, prev.RecommendedUnits)

	if prev.SeverityScore > out.SeverityScore {
		out.SeverityScore = prev.SeverityScore
	}
	out.Severity = triage.TierForScore(out.SeverityScore)
	if prev.PriorityCode == models.PriorityCode3 {
		out.PriorityCode = models.PriorityCode3
	}
	if (out.IncidentType == "" || out.IncidentType == models.IncidentOther) && prev.IncidentType != "" {
		out.IncidentType = prev.IncidentType
	}
	return out
}

// unionStrings keeps primary's order and appends anything from extra
// that is missing.
func unionStrings(primary, extra []string) []string {
	out := make([]string, 0, len(primary)+len(extra))
	seen := map[string]struct{}{}
	for _, lists := range [][]string{primary, extra} {
		for _, v := range lists {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
