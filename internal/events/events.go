package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	TurnStarted        Type = "TurnStarted"
	ModelResponded     Type = "ModelResponded"
	ToolCallsExtracted Type = "ToolCallsExtracted"
	ToolCallStarted    Type = "ToolCallStarted"
	ToolCallFinished   Type = "ToolCallFinished"
	ToolCallFailed     Type = "ToolCallFailed"
	TurnFinished       Type = "TurnFinished"
	TurnError          Type = "TurnError"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps payload with the current time.
func New(t Type, payload any) Event {
	return Event{Type: t, Timestamp: time.Now(), Payload: payload}
}

// Sink receives events. A nil Sink drops them.
type Sink func(Event)

// Emit forwards event to s when s is set.
func (s Sink) Emit(event Event) {
	if s != nil {
		s(event)
	}
}

// TurnStartedPayload is emitted before the model is asked.
type TurnStartedPayload struct {
	RunID     string    `json:"run_id"`
	Model     string    `json:"model"`
	Question  string    `json:"question"`
	StartedAt time.Time `json:"started_at"`
}

// ModelRespondedPayload carries the raw model text.
type ModelRespondedPayload struct {
	Text        string `json:"text"`
	NativeCalls int    `json:"native_calls"`
}

// ToolCallsExtractedPayload lists the calls that survived extraction.
type ToolCallsExtractedPayload struct {
	Count int      `json:"count"`
	Tools []string `json:"tools"`
}

// ToolCallStartedPayload marks tool call start.
type ToolCallStartedPayload struct {
	CallID    string    `json:"call_id"`
	ToolName  string    `json:"tool_name"`
	Input     any       `json:"input"`
	StartedAt time.Time `json:"started_at"`
}

// ToolCallFinishedPayload marks tool call end, successful or not.
type ToolCallFinishedPayload struct {
	CallID     string `json:"call_id"`
	ToolName   string `json:"tool_name"`
	Status     string `json:"status"`
	Preview    string `json:"preview"`
	LineCount  int    `json:"line_count"`
	ByteCount  int    `json:"byte_count"`
	Truncated  bool   `json:"truncated"`
	DurationMs int64  `json:"duration_ms"`
}

// TurnFinishedPayload closes the turn.
type TurnFinishedPayload struct {
	Status     string    `json:"status"`
	Answer     string    `json:"answer"`
	Calls      int       `json:"calls"`
	FinishedAt time.Time `json:"finished_at"`
}

// TurnErrorPayload records a turn error.
type TurnErrorPayload struct {
	Message string `json:"message"`
}
