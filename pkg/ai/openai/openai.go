package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mindwell-ai/mindwell/pkg/ai"
	mwerrors "github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

const (
	NAME = "openai"
)

type Config struct {
	Token   string
	BaseURL string
	Model   string
	Lang    string
	Timeout time.Duration

	// MaxContextTokens 为 0 时不做裁剪
	MaxContextTokens int
	// TokenCounter 默认使用 ai.NumTokens
	TokenCounter TokenCounter
}

type TokenCounter func(messages []openai.ChatCompletionMessage, model string) (int, error)

// Driver answers a chat turn with a single chat completion instead of the external workflow.
type Driver struct {
	client  *openai.Client
	model   string
	lang    string
	timeout time.Duration

	maxContextTokens int
	countTokens      TokenCounter
}

func NewClient(token, proxy string) *openai.Client {
	cfg := openai.DefaultConfig(token)
	if proxy != "" {
		cfg.BaseURL = proxy
	}

	return openai.NewClientWithConfig(cfg)
}

func New(cfg Config) *Driver {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TokenCounter == nil {
		cfg.TokenCounter = ai.NumTokens
	}

	return &Driver{
		client:  NewClient(cfg.Token, cfg.BaseURL),
		model:   cfg.Model,
		lang:    cfg.Lang,
		timeout: cfg.Timeout,

		maxContextTokens: cfg.MaxContextTokens,
		countTokens:      cfg.TokenCounter,
	}
}

func (s *Driver) Name() string {
	return NAME
}

// systemPrompt follows the client language when known, the configured language otherwise.
func (s *Driver) systemPrompt(lang string) string {
	if lang == "" {
		lang = s.lang
	}
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return ai.PROMPT_WELLNESS_COMPANION_CN
	}
	return ai.PROMPT_WELLNESS_COMPANION_EN
}

// contextPrompt renders the optional turn context as a second system message, empty when there is nothing to add.
func contextPrompt(wctx *types.WorkflowContext) string {
	var sb strings.Builder
	if wctx.HasSummary() {
		sb.WriteString(ai.PROMPT_CONTEXT_SUMMARY_HEADER)
		sb.WriteString("\n")
		if len(wctx.ConversationSummary.KeyThemes) > 0 {
			sb.WriteString("- key themes: " + strings.Join(wctx.ConversationSummary.KeyThemes, ", ") + "\n")
		}
		if len(wctx.ConversationSummary.ProgressIndicators) > 0 {
			sb.WriteString("- progress: " + strings.Join(wctx.ConversationSummary.ProgressIndicators, ", ") + "\n")
		}
		if len(wctx.ConversationSummary.ImportantInsights) > 0 {
			sb.WriteString("- insights: " + strings.Join(wctx.ConversationSummary.ImportantInsights, ", ") + "\n")
		}
	}
	if len(wctx.UserActivities) > 0 {
		sb.WriteString(ai.PROMPT_CONTEXT_ACTIVITIES_HEADER)
		sb.WriteString("\n")
		for _, v := range wctx.UserActivities {
			sb.WriteString(fmt.Sprintf("- %s: score %.1f, accuracy %.1f%%, completed %s\n",
				v.ActivityType, v.Score, v.AccuracyPercentage, time.UnixMilli(v.CompletedAt).UTC().Format(time.RFC3339)))
		}
	}
	if len(wctx.VoiceAnalysis) > 0 && string(wctx.VoiceAnalysis) != "null" {
		sb.WriteString(ai.PROMPT_CONTEXT_VOICE_HEADER)
		sb.WriteString("\n")
		sb.Write(wctx.VoiceAnalysis)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *Driver) buildMessages(wctx *types.WorkflowContext, history []types.ChatMessage) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.systemPrompt(wctx.Language)},
	}
	if extra := contextPrompt(wctx); extra != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: extra})
	}

	messages = append(messages, lo.Map(history, func(item types.ChatMessage, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{
			Role:    lo.Ternary(item.Role == types.MESSAGE_ROLE_ASSISTANT, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser),
			Content: item.Content,
		}
	})...)

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: wctx.UserMessage,
	})
}

// fitMessages drops the oldest history messages until the request fits maxContextTokens.
// The system prompt, the turn context and the current user message are always kept.
func (s *Driver) fitMessages(wctx *types.WorkflowContext) []openai.ChatCompletionMessage {
	history := wctx.RecentMessages
	for {
		messages := s.buildMessages(wctx, history)
		if s.maxContextTokens <= 0 {
			return messages
		}

		n, err := s.countTokens(messages, s.model)
		if err != nil {
			slog.Warn("failed to count prompt tokens, history is not trimmed", slog.String("driver", NAME),
				slog.String("model", s.model), slog.String("error", err.Error()))
			return messages
		}
		if n <= s.maxContextTokens || len(history) == 0 {
			if dropped := len(wctx.RecentMessages) - len(history); dropped > 0 {
				slog.Info("trimmed chat history to fit the token budget", slog.String("session_id", wctx.SessionID),
					slog.Int("dropped", dropped), slog.Int("tokens", n), slog.Int("max_tokens", s.maxContextTokens))
			}
			return messages
		}
		history = history[1:]
	}
}

func (s *Driver) Run(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: s.fitMessages(wctx),
		User:     wctx.UserID,
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
			return nil, &ai.WorkflowStatusError{
				Status: apiErr.HTTPStatusCode,
				Body:   mwerrors.Truncate(apiErr.Message, ai.MaxErrorBodyLength),
			}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
			return nil, &ai.WorkflowStatusError{
				Status: reqErr.HTTPStatusCode,
				Body:   mwerrors.Truncate(string(reqErr.Body), ai.MaxErrorBodyLength),
			}
		}
		return nil, ai.Unavailable(err)
	}

	slog.Debug("Run", slog.String("driver", NAME), slog.String("model", s.model), slog.Int("total_tokens", resp.Usage.TotalTokens))

	if len(resp.Choices) == 0 {
		return nil, ai.InvalidResponse("no choices returned")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, ai.InvalidResponse("message field is empty")
	}

	usage, _ := json.Marshal(resp.Usage)
	insights := map[string]any{
		"model": resp.Model,
	}
	var usageMap map[string]any
	if json.Unmarshal(usage, &usageMap) == nil {
		insights["usage"] = usageMap
	}

	return &types.WorkflowReply{
		Message:         content,
		Modality:        types.DEFAULT_MODALITY,
		ProcessingTime:  float64(time.Since(start).Milliseconds()),
		SessionInsights: insights,
	}, nil
}
