package service

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindwell-ai/mindwell/app/core"
	v1 "github.com/mindwell-ai/mindwell/app/logic/v1"
	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/cmd/service/handler"
	"github.com/mindwell-ai/mindwell/cmd/service/middleware"
	"github.com/mindwell-ai/mindwell/pkg/metrics"
)

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return key + ":" + token.User
		}, opts...)
	}
}

func SetupHttpRouter(s *handler.HttpSrv) {
	userLimit := GetUserLimitBuilder(s.Core)
	ipLimit := GetIPLimitBuilder(s.Core)
	chatLimit := userLimit("chat_message", core.WithLimit(s.Core.Cfg().Limit.ChatPerMinute), core.WithRange(time.Minute))

	s.Engine.Use(middleware.Recovery(), middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors, middleware.AcceptLanguage())
	s.Engine.Use(middleware.Metrics(s.Core))

	s.Engine.GET("/healthz", ipLimit("healthz", core.WithLimit(120), core.WithRange(time.Minute)), s.Healthz)
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	functions := s.Engine.Group("/functions/v1")
	{
		functions.POST("/enhanced-chat-context", middleware.Authorization(s.Core), chatLimit, s.EnhancedChat)
	}

	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.GET("/mode", func(c *gin.Context) {
			response.APISuccess(c, s.Core.Plugins.Name())
		})

		authed := apiV1.Group("")
		authed.Use(middleware.Authorization(s.Core))

		chat := authed.Group("/chat")
		{
			chat.POST("/enhanced", chatLimit, s.EnhancedChat)
			chat.GET("/sessions", s.ListChatSessions)
			chat.GET("/sessions/:session/messages", s.ListChatMessages)
		}

		activities := authed.Group("/activities")
		{
			activities.POST("", userLimit("activity", core.WithLimit(60), core.WithRange(time.Minute)), s.CreateUserActivity)
			activities.GET("", s.ListUserActivities)
		}
	}
}
