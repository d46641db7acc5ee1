package types

import (
	"encoding/json"
)

// WorkflowContext is everything the reasoning service gets for one turn. Built per request.
type WorkflowContext struct {
	UserMessage         string
	RecentMessages      []ChatMessage
	ConversationSummary *ConversationSummary
	UserActivities      []UserActivity
	UserPatterns        UserPatterns
	VoiceAnalysis       json.RawMessage
	UserID              string
	SessionID           string
	// client Accept-Language choice, en or zh-CN
	Language            string
}

func (w *WorkflowContext) HasSummary() bool {
	return w.ConversationSummary != nil
}

const DEFAULT_MODALITY = "text"

type WorkflowReply struct {
	Message         string
	Modality        string
	ProcessingTime  float64
	SessionInsights map[string]any
	VoiceAware      bool
}

// TurnState tracks how far a chat turn got, it is logged when a turn terminates.
type TurnState string

const (
	TURN_RECEIVED                    TurnState = "received"
	TURN_AUTHENTICATED               TurnState = "authenticated"
	TURN_SESSION_RESOLVED            TurnState = "session_resolved"
	TURN_CONTEXT_LOADED              TurnState = "context_loaded"
	TURN_USER_MESSAGE_PERSISTED      TurnState = "user_message_persisted"
	TURN_WORKFLOW_CALLED             TurnState = "workflow_called"
	TURN_REPLY_VALIDATED             TurnState = "reply_validated"
	TURN_ASSISTANT_MESSAGE_PERSISTED TurnState = "assistant_message_persisted"
	TURN_RESPONDED                   TurnState = "responded"

	TURN_AUTH_FAILED               TurnState = "auth_failed"
	TURN_VALIDATION_FAILED         TurnState = "validation_failed"
	TURN_WORKFLOW_UNAVAILABLE      TurnState = "workflow_unavailable"
	TURN_WORKFLOW_ERROR            TurnState = "workflow_error"
	TURN_WORKFLOW_INVALID_RESPONSE TurnState = "workflow_invalid_response"
	TURN_FAILED                    TurnState = "failed"
)
