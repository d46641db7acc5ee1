package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-ai/mindwell/pkg/ai"
	"github.com/mindwell-ai/mindwell/pkg/ai/openai"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestRun(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"Take a slow breath."},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer srv.Close()

	d := openai.New(openai.Config{Token: "test-token", BaseURL: srv.URL + "/v1"})
	assert.Equal(t, "openai", d.Name())

	reply, err := d.Run(context.Background(), &types.WorkflowContext{
		UserMessage: "I can't sleep",
		RecentMessages: []types.ChatMessage{
			{Role: types.MESSAGE_ROLE_USER, Content: "hi"},
			{Role: types.MESSAGE_ROLE_ASSISTANT, Content: "hello"},
		},
		ConversationSummary: &types.ConversationSummary{KeyThemes: types.StringList{"sleep"}},
		UserID:              "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Take a slow breath.", reply.Message)
	assert.Equal(t, types.DEFAULT_MODALITY, reply.Modality)
	assert.Equal(t, "gpt-4o-mini", reply.SessionInsights["model"])

	require.Len(t, got.Messages, 5)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, ai.PROMPT_WELLNESS_COMPANION_EN, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "sleep")
	assert.Equal(t, "assistant", got.Messages[3].Role)
	assert.Equal(t, "user", got.Messages[4].Role)
	assert.Equal(t, "I can't sleep", got.Messages[4].Content)
}

func TestRunUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	_, err := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1"}).Run(context.Background(), &types.WorkflowContext{UserMessage: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrWorkflowError)
}

func TestRunEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	_, err := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1"}).Run(context.Background(), &types.WorkflowContext{UserMessage: "hi"})
	assert.ErrorIs(t, err, ai.ErrWorkflowInvalidResponse)
}

func TestRunClientLanguage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"好的"}}]}`)
	}))
	defer srv.Close()

	d := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1", Lang: "en"})
	_, err := d.Run(context.Background(), &types.WorkflowContext{UserMessage: "你好", Language: types.LANGUAGE_CN_KEY})
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, ai.PROMPT_WELLNESS_COMPANION_CN, got.Messages[0].Content)
}

func countNonSystem(messages []goopenai.ChatCompletionMessage, model string) (int, error) {
	n := 0
	for _, m := range messages {
		if m.Role != goopenai.ChatMessageRoleSystem {
			n += len(m.Content)
		}
	}
	return n, nil
}

func TestRunTrimsHistoryToTokenBudget(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	var history []types.ChatMessage
	for i := 0; i < 5; i++ {
		history = append(history, types.ChatMessage{Role: types.MESSAGE_ROLE_USER, Content: fmt.Sprintf("history-%02d", i)})
	}
	wctx := &types.WorkflowContext{UserMessage: "hi", RecentMessages: history}

	t.Run("oldest messages are dropped", func(t *testing.T) {
		d := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1", MaxContextTokens: 32, TokenCounter: countNonSystem})
		_, err := d.Run(context.Background(), wctx)
		require.NoError(t, err)

		require.Len(t, got.Messages, 5)
		assert.Equal(t, "history-02", got.Messages[1].Content)
		assert.Equal(t, "history-04", got.Messages[3].Content)
		assert.Equal(t, "hi", got.Messages[4].Content)
		// the turn context keeps all history for the response debug block
		assert.Len(t, wctx.RecentMessages, 5)
	})

	t.Run("current message is kept even over budget", func(t *testing.T) {
		d := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1", MaxContextTokens: 1, TokenCounter: countNonSystem})
		_, err := d.Run(context.Background(), wctx)
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "hi", got.Messages[1].Content)
	})

	t.Run("counter failure sends full history", func(t *testing.T) {
		d := openai.New(openai.Config{Token: "t", BaseURL: srv.URL + "/v1", MaxContextTokens: 1,
			TokenCounter: func([]goopenai.ChatCompletionMessage, string) (int, error) {
				return 0, errors.New("no encoding")
			}})
		_, err := d.Run(context.Background(), wctx)
		require.NoError(t, err)
		assert.Len(t, got.Messages, 7)
	})
}
