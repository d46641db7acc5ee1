package response

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

func ProvideResponseLocalizer(l i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("i18n", l)
	}
}

func InjectResponseLocalizer(c *gin.Context) (i18n.Localizer, bool) {
	l, ok := c.Get("i18n")
	if !ok {
		return i18n.Localizer{}, false
	}
	localizer, ok := l.(i18n.Localizer)
	return localizer, ok
}

// 常量定义
const (
	RequestIDKey     = "request_id"
	RequestStartKey  = "request_start"
	SessionIDKey     = "session_id"
	UserIDKey        = "user_id"
	RequestIDHeader  = "X-Request-Id"
	maxErrorDebugLen = 512
)

// ErrorEnvelope 所有接口统一的错误响应结构
type ErrorEnvelope struct {
	Error     string     `json:"error"`
	SessionID string     `json:"sessionId"`
	Debug     ErrorDebug `json:"debug"`
}

type ErrorDebug struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Timestamp    string `json:"timestamp"`
}

func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenRandomID()
		}
		c.Set(RequestIDKey, requestID)
		c.Set(RequestStartKey, time.Now())
		c.Header(RequestIDHeader, requestID)
	}
}

// SetSessionID records the session resolved for this request, error envelopes echo it.
func SetSessionID(c *gin.Context, sessionID string) {
	c.Set(SessionIDKey, sessionID)
}

func GetLangFromRequestOrDefault(c *gin.Context) string {
	for _, v := range utils.ParseAcceptLanguage(c.Request.Header.Get("Accept-Language")) {
		if i18n.ALLOW_LANG[v.Tag] {
			return v.Tag
		}
		if strings.HasPrefix(strings.ToLower(v.Tag), "zh") {
			return "zh-CN"
		}
		if strings.HasPrefix(strings.ToLower(v.Tag), "en") {
			return "en"
		}
	}
	return i18n.DEFAULT_LANG
}

func localize(c *gin.Context, id string, data map[string]interface{}) string {
	l, ok := InjectResponseLocalizer(c)
	if !ok {
		return id
	}
	if len(data) > 0 {
		return l.GetWithData(GetLangFromRequestOrDefault(c), id, data)
	}
	return l.Get(GetLangFromRequestOrDefault(c), id)
}

// APIError api响应失败
func APIError(c *gin.Context, err error) {
	c.Abort()

	var (
		httpStatus = http.StatusInternalServerError
		message    string
		detail     string
	)
	if cerrptr, ok := err.(*errors.CustomizedError); !ok {
		message = localize(c, i18n.ERROR_INTERNAL, nil)
		detail = errors.Truncate(err.Error(), maxErrorDebugLen)
	} else {
		httpStatus = cerrptr.GetCode()
		message = localize(c, cerrptr.Message(), cerrptr.Data())
		if cerrptr.Unwrap() == nil {
			detail = message
		} else {
			detail = cerrptr.Detail()
		}
	}

	sessionID := c.GetString(SessionIDKey)
	if sessionID == "" {
		sessionID = utils.NewSessionID()
	}

	res := ErrorEnvelope{
		Error:     message,
		SessionID: sessionID,
		Debug: ErrorDebug{
			Error:        true,
			ErrorMessage: detail,
			Timestamp:    utils.NowTimestamp(),
		},
	}

	c.JSON(httpStatus, res)
	printErrorLog(c, httpStatus, err)
}

func requestDuration(c *gin.Context) time.Duration {
	start, ok := c.Get(RequestStartKey)
	if !ok {
		return 0
	}
	t, _ := start.(time.Time)
	return time.Since(t)
}

func printErrorLog(c *gin.Context, status int, err error) {
	// 统一打印日志
	attrs := []any{
		slog.String("request_id", c.GetString(RequestIDKey)),
		slog.String("request_uri", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Int("code", status),
		slog.Duration("duration", requestDuration(c)),
		slog.String("error", err.Error()),
	}
	if uid := c.GetString(UserIDKey); uid != "" {
		attrs = append(attrs, slog.String("user_id", uid))
	}
	if sid := c.GetString(SessionIDKey); sid != "" {
		attrs = append(attrs, slog.String("session_id", sid))
	}
	if status >= http.StatusInternalServerError {
		slog.Error("response error", attrs...)
		return
	}
	slog.Warn("response error", attrs...)
}

func printSuccessLog(c *gin.Context) {
	attrs := []any{
		slog.String("request_id", c.GetString(RequestIDKey)),
		slog.String("request_uri", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Duration("duration", requestDuration(c)),
		slog.String("params", c.Request.URL.Query().Encode()),
	}
	if uid := c.GetString(UserIDKey); uid != "" {
		attrs = append(attrs, slog.String("user_id", uid))
	}
	slog.Info("request success", attrs...)
}

// APISuccess api响应成功
func APISuccess(c *gin.Context, response interface{}) {
	c.Abort()
	if response == nil {
		c.Status(http.StatusOK)
	} else {
		c.JSON(http.StatusOK, response)
	}
	printSuccessLog(c)
}
