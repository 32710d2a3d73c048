package extract

import "fmt"

const systemPrompt = `You are an emergency dispatch analyst. You read 911 call transcripts and produce structured incident assessments. Respond with JSON only, no prose.`

const promptTemplate = `Analyze this emergency call transcript and extract the incident details.

TRANSCRIPT:
%s

Respond with a single JSON object using exactly this schema:
{
  "incident_type": "fire|medical_emergency|accident|crime|public_safety|other",
  "incident_subtype": "short free text",
  "severity": "critical|high|medium|low",
  "severity_score": 0-100,
  "location": {
    "address": "string or omit",
    "cross_streets": "string or omit",
    "landmarks": "string or omit",
    "city": "string or omit",
    "state": "string or omit",
    "zip_code": "string or omit",
    "confidence": 0.0-1.0
  },
  "persons_involved": {"count": 0, "injuries": 0, "descriptions": []},
  "immediate_threats": ["strings"],
  "time_sensitive_factors": ["strings"],
  "vehicles_involved": ["strings"],
  "weapons_mentioned": ["strings"],
  "caller_condition": "calm|distressed|panicked|injured|unresponsive|unknown",
  "summary": "one or two sentences",
  "confidence_score": 0.0-1.0,
  "missing_critical_info": ["strings"],
  "recommended_questions": ["strings"]
}

Severity rubric:
- critical: immediate threat to life (active shooter, cardiac arrest, person not breathing, structure fire with people inside, severe uncontrolled bleeding)
- high: serious but not yet life-threatening (injury accident, assault in progress, fire with no entrapment)
- medium: urgent response needed, no immediate danger to life (property crime just occurred, minor injuries)
- low: routine report (noise complaint, cold theft report, non-urgent welfare check)

If the transcript does not state a field, use an empty value rather than guessing.`

// BuildPrompt embeds the transcript into the fixed extraction prompt.
func BuildPrompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, transcript)
}
