package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(ProvideResponseLocalizer(i18n.NewLocalizer("en", "zh-CN")), NewResponse())
	e.GET("/test", handler)
	return e
}

func doRequest(e *gin.Engine, lang string) (*httptest.ResponseRecorder, ErrorEnvelope) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	var env ErrorEnvelope
	json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestAPIErrorEnvelope(t *testing.T) {
	sid := "0f8fad5b-d9cb-469f-a165-70867728950e"
	e := newEngine(func(c *gin.Context) {
		SetSessionID(c, sid)
		APIError(c, errors.New("test", i18n.ERROR_WORKFLOW_UNAVAILABLE, fmt.Errorf("dial tcp: timeout")))
	})

	w, env := doRequest(e, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to connect to the workflow service", env.Error)
	assert.Equal(t, sid, env.SessionID)
	assert.True(t, env.Debug.Error)
	assert.Equal(t, "dial tcp: timeout", env.Debug.ErrorMessage)
	assert.NotEmpty(t, env.Debug.Timestamp)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAPIErrorMintsSessionID(t *testing.T) {
	e := newEngine(func(c *gin.Context) {
		APIError(c, errors.New("test", i18n.ERROR_MESSAGE_EMPTY, nil).Code(http.StatusBadRequest))
	})

	w, env := doRequest(e, "zh-CN,zh;q=0.9")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, utils.IsUUIDShape(env.SessionID))
	assert.NotEqual(t, i18n.ERROR_MESSAGE_EMPTY, env.Error)
	// no cause, the localized message doubles as the debug detail
	assert.Equal(t, env.Error, env.Debug.ErrorMessage)
}

func TestAPIErrorPlainError(t *testing.T) {
	e := newEngine(func(c *gin.Context) {
		APIError(c, fmt.Errorf("boom"))
	})

	w, env := doRequest(e, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", env.Debug.ErrorMessage)
}

func TestAPISuccess(t *testing.T) {
	e := newEngine(func(c *gin.Context) {
		APISuccess(c, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetLangFromRequestOrDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"":                     "en",
		"zh":                   "zh-CN",
		"zh-TW,zh;q=0.8":       "zh-CN",
		"fr-FR,en-US;q=0.5":    "en",
		"de":                   "en",
		"en-GB,zh-CN;q=0.9":    "en",
		"zh-CN;q=0.9,en;q=0.1": "zh-CN",
	}
	for header, expect := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Accept-Language", header)
		assert.Equal(t, expect, GetLangFromRequestOrDefault(c), header)
	}
}
