package types

import "encoding/json"

// EnhancedChatArgs 一轮对话的入参，message 保留原始 json 以区分非字符串类型
type EnhancedChatArgs struct {
	Message       json.RawMessage
	SessionID     string
	VoiceAnalysis json.RawMessage
}

type EnhancedChatResponse struct {
	Message        string        `json:"message"`
	SessionID      string        `json:"sessionId"`
	SessionTitle   string        `json:"sessionTitle"`
	Modality       string        `json:"modality"`
	ProcessingTime float64       `json:"processingTime"`
	Debug          ChatDebugInfo `json:"debug"`
}

type ChatDebugInfo struct {
	ActivitiesFound     int    `json:"activitiesFound"`
	RecentMessagesCount int    `json:"recentMessagesCount"`
	HasSummary          bool   `json:"hasSummary"`
	UserID              string `json:"userId"`
	SessionID           string `json:"sessionId"`
	Timestamp           string `json:"timestamp"`
}

type ListChatSessionsResult struct {
	List  []ChatSessionBrief `json:"list"`
	Total int64              `json:"total"`
}

type ListChatMessagesResult struct {
	SessionID string        `json:"session_id"`
	List      []ChatMessage `json:"list"`
}

type CreateUserActivityArgs struct {
	ActivityType       string          `json:"activity_type"`
	Score              float64         `json:"score"`
	AccuracyPercentage float64         `json:"accuracy_percentage"`
	CompletedAt        int64           `json:"completed_at"`
	ActivityData       json.RawMessage `json:"activity_data"`
}
