package models

import "time"

type SeverityTier string

const (
	SeverityCritical SeverityTier = "critical"
	SeverityHigh     SeverityTier = "high"
	SeverityMedium   SeverityTier = "medium"
	SeverityLow      SeverityTier = "low"
)

type IncidentType string

const (
	IncidentFire         IncidentType = "fire"
	IncidentMedical      IncidentType = "medical_emergency"
	IncidentAccident     IncidentType = "accident"
	IncidentCrime        IncidentType = "crime"
	IncidentPublicSafety IncidentType = "public_safety"
	IncidentOther        IncidentType = "other"
)

type CallerCondition string

const (
	ConditionCalm         CallerCondition = "calm"
	ConditionDistressed   CallerCondition = "distressed"
	ConditionPanicked     CallerCondition = "panicked"
	ConditionInjured      CallerCondition = "injured"
	ConditionUnresponsive CallerCondition = "unresponsive"
	ConditionUnknown      CallerCondition = "unknown"
)

type CallStatus string

const (
	StatusActive          CallStatus = "active"
	StatusProcessing      CallStatus = "processing"
	StatusPendingApproval CallStatus = "pending_approval"
	StatusDispatched      CallStatus = "dispatched"
	StatusResolved        CallStatus = "resolved"
	StatusClosed          CallStatus = "closed"
)

const (
	PriorityCode3 = "Code 3"
	PriorityCode2 = "Code 2"
	PriorityCode1 = "Code 1"
)

// EmotionFrame is one snapshot of emotion name -> intensity in [0,1],
// attached to a single caller utterance.
type EmotionFrame map[string]float64

type TranscriptSegment struct {
	Role      string       `json:"role"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	Emotions  EmotionFrame `json:"emotions,omitempty"`
}

type EmotionScore struct {
	Emotion          string  `json:"emotion"`
	AverageIntensity float64 `json:"average_intensity"`
}

type EmotionStatistics struct {
	TopEmotions      []EmotionScore `json:"top_emotions"`
	AverageIntensity float64        `json:"average_intensity"`
	DistressLevel    float64        `json:"distress_level"`
}

type Location struct {
	Address      string  `json:"address,omitempty"`
	CrossStreets string  `json:"cross_streets,omitempty"`
	Landmarks    string  `json:"landmarks,omitempty"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
	ZipCode      string  `json:"zip_code,omitempty"`
	Lat          float64 `json:"lat,omitempty"`
	Lon          float64 `json:"lon,omitempty"`
	Confidence   float64 `json:"confidence"`
}

type PersonsInvolved struct {
	Count        int      `json:"count"`
	Injuries     int      `json:"injuries"`
	Descriptions []string `json:"descriptions"`
}

type IncidentExtraction struct {
	IncidentType         IncidentType    `json:"incident_type"`
	IncidentSubtype      string          `json:"incident_subtype"`
	Severity             SeverityTier    `json:"severity"`
	SeverityScore        *float64        `json:"severity_score,omitempty"`
	Location             *Location       `json:"location,omitempty"`
	PersonsInvolved      PersonsInvolved `json:"persons_involved"`
	ImmediateThreats     []string        `json:"immediate_threats"`
	TimeSensitiveFactors []string        `json:"time_sensitive_factors"`
	VehiclesInvolved     []string        `json:"vehicles_involved"`
	WeaponsMentioned     []string        `json:"weapons_mentioned"`
	CallerCondition      CallerCondition `json:"caller_condition"`
	Summary              string          `json:"summary"`
	ConfidenceScore      float64         `json:"confidence_score"`
	MissingCriticalInfo  []string        `json:"missing_critical_info"`
	RecommendedQuestions []string        `json:"recommended_questions"`
}

type AnalysisResult struct {
	Labels              []string          `json:"labels"`
	Severity            SeverityTier      `json:"severity"`
	SeverityScore       float64           `json:"severity_score"`
	Confidence          float64           `json:"confidence"`
	Flags               []string          `json:"flags"`
	Summary             string            `json:"summary"`
	IncidentType        IncidentType      `json:"incident_type"`
	IncidentSubtype     string            `json:"incident_subtype,omitempty"`
	PersonsInvolved     int               `json:"persons_involved"`
	ImmediateThreats    []string          `json:"immediate_threats"`
	RecommendedUnits    []string          `json:"recommended_units"`
	PriorityCode        string            `json:"priority_code"`
	SpecialInstructions string            `json:"special_instructions"`
	LocationMentioned   string            `json:"location_mentioned"`
	CallerCondition     CallerCondition   `json:"caller_condition"`
	EmotionAnalysis     EmotionStatistics `json:"emotion_analysis"`
	AnalyzedAt          time.Time         `json:"analyzed_at"`
	AnalysisMethod      string            `json:"analysis_method"`
}

// EmergencyCall is the dispatcher-facing call record. AnalysisResult is
// embedded so its fields marshal flat alongside the call's own.
type EmergencyCall struct {
	ID           string     `json:"id"`
	CallerNumber string     `json:"caller_number"`
	Status       CallStatus `json:"status"`
	Location     Location   `json:"location"`
	AnalysisResult
	Transcript []TranscriptSegment `json:"transcript"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ResolvedAt *time.Time          `json:"resolved_at,omitempty"`
}

// Terminal reports whether the call has reached a lifecycle end state.
func (s CallStatus) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}
