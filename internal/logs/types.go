package logs

import "time"

// Interaction types.
const (
	TypeMenuDisplay        = "menu_display"
	TypeMenuSelection      = "menu_selection"
	TypeStaticResponse     = "static_response"
	TypeAIResponse         = "ai_response"
	TypeEscalation         = "escalation"
	TypeEscalationNotified = "escalation_notified"
	TypeChatMessage        = "chat_message"
	TypeAPICall            = "api_call"
	TypeError              = "error"
	TypeRetention          = "retention_purge"
)

// Statuses.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusPending    = "pending"
	StatusAfterHours = "after_hours"
)

// Session ids used when the caller supplies none.
const (
	SessionAnonymous = "anonymous"
	SessionSystem    = "system"
)

// Entry is one interaction log row.
type Entry struct {
	ID              string         `json:"id"`
	Timestamp       string         `json:"timestamp"`
	SessionID       string         `json:"sessionId"`
	InteractionType string         `json:"interactionType"`
	UserMessage     string         `json:"userMessage"`
	BotResponse     string         `json:"botResponse"`
	Provider        string         `json:"provider,omitempty"`
	ResponseTimeMs  float64        `json:"responseTimeMs"`
	Status          string         `json:"status"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// row is the shape persisted in the logs table. Metadata is stored as JSON text.
type row struct {
	LogID           string  `dynamodbav:"log_id"` // PK, ULID
	Timestamp       string  `dynamodbav:"timestamp"`
	SessionID       string  `dynamodbav:"session_id"`
	InteractionType string  `dynamodbav:"interaction_type"`
	UserMessage     string  `dynamodbav:"user_message"`
	BotResponse     string  `dynamodbav:"bot_response"`
	Provider        string  `dynamodbav:"provider"`
	ResponseTimeMs  float64 `dynamodbav:"response_time_ms"`
	Status          string  `dynamodbav:"status"`
	Metadata        string  `dynamodbav:"metadata"`
}

// Filters narrows a Query. Zero values match everything.
type Filters struct {
	StartDate       *time.Time
	EndDate         *time.Time
	InteractionType string
	SessionID       string
	Status          string
	Limit           int
}

// DayStats is the per-day breakdown in Analytics.
type DayStats struct {
	Total       int `json:"total"`
	Successful  int `json:"successful"`
	Escalations int `json:"escalations"`
}

// Analytics summarises a set of log entries.
type Analytics struct {
	TotalInteractions   int                 `json:"totalInteractions"`
	InteractionsByType  map[string]int      `json:"interactionsByType"`
	SuccessRate         int                 `json:"successRate"`
	EscalationRate      int                 `json:"escalationRate"`
	AverageResponseTime int                 `json:"averageResponseTime"`
	AIUsage             map[string]int      `json:"aiUsage"`
	BusyHours           [24]int             `json:"busyHours"`
	DailyStats          map[string]DayStats `json:"dailyStats"`
}
