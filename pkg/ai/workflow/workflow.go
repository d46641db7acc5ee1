package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mindwell-ai/mindwell/pkg/ai"
	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

const (
	NAME           = "http"
	DefaultTimeout = 60 * time.Second
	// caps how much of a reply body is read, a healthy reply is a few KB
	maxReplyBodySize = 4 << 20
)

type Config struct {
	EndpointURL   string
	Timeout       time.Duration
	APICredential string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

type Option func(c *Client)

// WithHTTPClient replaces the transport. The configured timeout is still enforced through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return NAME
}

type recentMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

type requestBody struct {
	UserMessage         string                     `json:"user_message"`
	RecentMessages      []recentMessage            `json:"recent_messages"`
	ConversationSummary *types.ConversationSummary `json:"conversation_summary"`
	UserActivities      []types.UserActivity       `json:"user_activities"`
	UserPatterns        types.UserPatterns         `json:"user_patterns"`
	VoiceAnalysis       json.RawMessage            `json:"voice_analysis"`
	UserID              string                     `json:"user_id"`
	SessionID           string                     `json:"session_id"`
}

func newRequestBody(wctx *types.WorkflowContext) requestBody {
	body := requestBody{
		UserMessage: wctx.UserMessage,
		RecentMessages: lo.Map(wctx.RecentMessages, func(item types.ChatMessage, _ int) recentMessage {
			return recentMessage{
				Role:      item.Role.String(),
				Content:   item.Content,
				CreatedAt: item.CreatedAt,
			}
		}),
		ConversationSummary: wctx.ConversationSummary,
		UserActivities:      lo.Ternary(wctx.UserActivities == nil, []types.UserActivity{}, wctx.UserActivities),
		UserPatterns:        wctx.UserPatterns,
		VoiceAnalysis:       wctx.VoiceAnalysis,
		UserID:              wctx.UserID,
		SessionID:           wctx.SessionID,
	}
	if len(body.VoiceAnalysis) == 0 {
		body.VoiceAnalysis = json.RawMessage("null")
	}
	return body
}

func (c *Client) Run(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error) {
	payload, err := json.Marshal(newRequestBody(wctx))
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow request, %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, ai.Unavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APICredential != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APICredential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ai.Unavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBodySize))
	if err != nil {
		return nil, ai.Unavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ai.WorkflowStatusError{
			Status: resp.StatusCode,
			Body:   errors.Truncate(string(raw), ai.MaxErrorBodyLength),
		}
	}

	return ParseReply(raw)
}

// ParseReply validates a 2xx workflow body. A usable reply needs a non blank string "message".
func ParseReply(raw []byte) (*types.WorkflowReply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ai.InvalidResponse("body is not a json object")
	}

	msgRaw, ok := fields["message"]
	if !ok {
		return nil, ai.InvalidResponse("missing message field")
	}

	var message string
	if err := json.Unmarshal(msgRaw, &message); err != nil {
		return nil, ai.InvalidResponse("message field is not a string")
	}
	if strings.TrimSpace(message) == "" {
		return nil, ai.InvalidResponse("message field is empty")
	}

	reply := &types.WorkflowReply{
		Message:         message,
		Modality:        types.DEFAULT_MODALITY,
		SessionInsights: map[string]any{},
	}

	// optional fields, a wrong type falls back to the default
	if v, ok := fields["modality"]; ok {
		var modality string
		if json.Unmarshal(v, &modality) == nil && modality != "" {
			reply.Modality = modality
		}
	}
	if v, ok := fields["processing_time"]; ok {
		var pt float64
		if json.Unmarshal(v, &pt) == nil && pt > 0 {
			reply.ProcessingTime = pt
		}
	}
	if v, ok := fields["session_insights"]; ok {
		var insights map[string]any
		if json.Unmarshal(v, &insights) == nil && insights != nil {
			reply.SessionInsights = insights
		} else {
			slog.Debug("ignore non object session_insights", slog.String("driver", NAME))
		}
	}
	if v, ok := fields["voice_aware"]; ok {
		var voiceAware bool
		if json.Unmarshal(v, &voiceAware) == nil {
			reply.VoiceAware = voiceAware
		}
	}

	return reply, nil
}
