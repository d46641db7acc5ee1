package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/app/store/memstore"
	"github.com/mindwell-ai/mindwell/cmd/service/handler"
	"github.com/mindwell-ai/mindwell/pkg/ai"
	"github.com/mindwell-ai/mindwell/pkg/plugins/selfhost"
	"github.com/mindwell-ai/mindwell/pkg/security"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

const testSecret = "test-secret"

type stubDriver struct {
	run func(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error)
}

func (d *stubDriver) Name() string {
	return "stub"
}

func (d *stubDriver) Run(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error) {
	if d.run != nil {
		return d.run(ctx, wctx)
	}
	return &types.WorkflowReply{Message: "hello from the assistant", Modality: "text", ProcessingTime: 5}, nil
}

type testServer struct {
	core   *core.Core
	stores *memstore.Provider
	engine *gin.Engine
}

func newTestServer(t *testing.T, driver *stubDriver, modify ...func(cfg *core.CoreConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := core.CoreConfig{
		Security: core.Security{JWTSecret: testSecret},
	}
	for _, m := range modify {
		m(&cfg)
	}

	stores := memstore.New()
	app := core.NewCore(cfg, stores, driver, nil)
	app.InstallPlugins(selfhost.NewSelfHostMode())
	SetupHttpRouter(&handler.HttpSrv{Core: app, Engine: app.HttpEngine()})

	return &testServer{core: app, stores: stores, engine: app.HttpEngine()}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := security.GenerateJWT(security.NewTokenClaims(types.DEFAULT_APPID, userID, "authenticated", time.Now().Add(time.Hour).Unix()), []byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(method, path, auth string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.True(t, env.Debug.Error)
	assert.NotEmpty(t, env.Debug.Timestamp)
	assert.True(t, utils.IsUUIDShape(env.SessionID), env.SessionID)
	return env
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, &stubDriver{})

	w := s.do(http.MethodOptions, "/functions/v1/enhanced-chat-context", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestEnhancedChat_Unauthorized(t *testing.T) {
	s := newTestServer(t, &stubDriver{})

	for _, auth := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
		w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", auth, map[string]any{"message": "hi"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "Missing or invalid authorization token", env.Error)
	}
	assert.Empty(t, s.stores.Messages())
}

func TestEnhancedChat_Success(t *testing.T) {
	s := newTestServer(t, &stubDriver{})
	auth := bearer(t, "alice")

	w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", auth, map[string]any{
		"message":       "  I could not sleep last night  ",
		"sessionId":     nil,
		"voiceAnalysis": map[string]any{"emotion": "tired"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res types.EnhancedChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "hello from the assistant", res.Message)
	assert.True(t, utils.IsUUIDShape(res.SessionID))
	assert.Equal(t, "I could not sleep last night", res.SessionTitle)
	assert.Equal(t, "text", res.Modality)
	assert.Equal(t, float64(5), res.ProcessingTime)
	assert.Equal(t, "alice", res.Debug.UserID)
	assert.Equal(t, res.SessionID, res.Debug.SessionID)
	assert.Equal(t, 0, res.Debug.RecentMessagesCount)
	assert.NotEmpty(t, w.Header().Get(response.RequestIDHeader))

	// 同一会话继续
	w = s.do(http.MethodPost, "/api/v1/chat/enhanced", auth, map[string]any{"message": "still tired", "sessionId": res.SessionID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next types.EnhancedChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
	assert.Equal(t, res.SessionID, next.SessionID)
	assert.Equal(t, 2, next.Debug.RecentMessagesCount)

	// 非字符串的 sessionId 视为未提供
	w = s.do(http.MethodPost, "/api/v1/chat/enhanced", auth, map[string]any{"message": "hi", "sessionId": 42})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var other types.EnhancedChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))
	assert.NotEqual(t, res.SessionID, other.SessionID)
}

func TestEnhancedChat_Validation(t *testing.T) {
	s := newTestServer(t, &stubDriver{})
	auth := bearer(t, "alice")

	tests := []struct {
		name string
		body any
		want string
	}{
		{name: "missing message", body: map[string]any{}, want: "Message must not be empty"},
		{name: "blank message", body: map[string]any{"message": "   "}, want: "Message must not be empty"},
		{name: "too long", body: map[string]any{"message": strings.Repeat("a", 5001)}, want: "Message is too long (max 5000 characters)"},
		{name: "not a string", body: map[string]any{"message": 12}, want: "Invalid request arguments"},
		{name: "broken json", body: `{"message":`, want: "Invalid request arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", auth, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.want, env.Error)
		})
	}
	assert.Empty(t, s.stores.Messages())
}

func TestEnhancedChat_WorkflowTimeout(t *testing.T) {
	s := newTestServer(t, &stubDriver{run: func(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error) {
		return nil, ai.Unavailable(context.DeadlineExceeded)
	}})

	w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", bearer(t, "alice"), map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Failed to connect to the workflow service", env.Error)
	assert.Contains(t, env.Debug.ErrorMessage, "deadline exceeded")

	// 错误响应回显本轮解析出的会话 id
	msgs := s.stores.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, msgs[0].SessionID, env.SessionID)
}

func TestEnhancedChat_Localized(t *testing.T) {
	s := newTestServer(t, &stubDriver{})

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/enhanced-chat-context", strings.NewReader(`{"message":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "alice"))
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.NotEqual(t, "Message must not be empty", env.Error)
	assert.NotEqual(t, "error.message.empty", env.Error)
}

func TestEnhancedChat_RateLimit(t *testing.T) {
	s := newTestServer(t, &stubDriver{}, func(cfg *core.CoreConfig) {
		cfg.Limit.ChatPerMinute = 2
	})
	auth := bearer(t, "alice")

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", auth, map[string]any{"message": "hi"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", auth, map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	decodeEnvelope(t, w)

	// 限流按用户区分
	w = s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", bearer(t, "bob"), map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHistoryRoutes(t *testing.T) {
	s := newTestServer(t, &stubDriver{})
	alice := bearer(t, "alice")

	w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", alice, map[string]any{"message": "first words"})
	require.Equal(t, http.StatusOK, w.Code)
	var turn types.EnhancedChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))

	w = s.do(http.MethodGet, "/api/v1/chat/sessions?page=1&pagesize=10", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sessions types.ListChatSessionsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	assert.Equal(t, int64(1), sessions.Total)
	require.Len(t, sessions.List, 1)
	assert.Equal(t, "first words", sessions.List[0].Title)

	w = s.do(http.MethodGet, "/api/v1/chat/sessions/"+turn.SessionID+"/messages", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var messages types.ListChatMessagesResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages.List, 2)
	assert.Equal(t, types.MESSAGE_ROLE_USER, messages.List[0].Role)
	assert.Equal(t, types.MESSAGE_ROLE_ASSISTANT, messages.List[1].Role)

	w = s.do(http.MethodGet, "/api/v1/chat/sessions/"+turn.SessionID+"/messages", bearer(t, "bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	assert.Empty(t, messages.List)

	w = s.do(http.MethodGet, "/api/v1/chat/sessions/abc/messages", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	decodeEnvelope(t, w)
}

func TestActivityRoutes(t *testing.T) {
	s := newTestServer(t, &stubDriver{})
	alice := bearer(t, "alice")

	w := s.do(http.MethodPost, "/api/v1/activities", alice, map[string]any{
		"activity_type":       "breathing",
		"score":               70,
		"accuracy_percentage": 88.5,
		"completed_at":        1700000000000,
		"activity_data":       map[string]any{"rounds": 4},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/activities", alice, map[string]any{"activity_type": "breathing", "accuracy_percentage": 120})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/activities?limit=5", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list handler.ListUserActivitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.List, 1)
	assert.Equal(t, "breathing", list.List[0].ActivityType)
	assert.JSONEq(t, `{"rounds":4}`, string(list.List[0].ActivityData))

	// 活动会进入下一轮对话的上下文
	w = s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", alice, map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	var turn types.EnhancedChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))
	assert.Equal(t, 1, turn.Debug.ActivitiesFound)
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, &stubDriver{})

	w := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var health handler.HealthzResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, selfhost.NAME, health.Mode)

	s.stores.SetHook(func(op string, arg any) error {
		if op == memstore.OP_PING {
			return context.DeadlineExceeded
		}
		return nil
	})
	w = s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mindwell_core_api_response_time")
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, &stubDriver{run: func(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error) {
		panic("driver exploded")
	}})

	w := s.do(http.MethodPost, "/functions/v1/enhanced-chat-context", bearer(t, "alice"), map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decodeEnvelope(t, w)
}
