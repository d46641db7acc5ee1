package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	v1 "github.com/mindwell-ai/mindwell/app/logic/v1"
	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

// EnhancedChatRequest keeps every field raw, a non string sessionId is treated as absent
// and the message type is checked by the logic layer.
type EnhancedChatRequest struct {
	Message       json.RawMessage `json:"message"`
	SessionID     json.RawMessage `json:"sessionId"`
	VoiceAnalysis json.RawMessage `json:"voiceAnalysis"`
}

func (r EnhancedChatRequest) sessionToken() string {
	var token string
	if err := json.Unmarshal(r.SessionID, &token); err != nil {
		return ""
	}
	return token
}

func (s *HttpSrv) EnhancedChat(c *gin.Context) {
	var (
		err error
		req EnhancedChatRequest
	)

	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewChatLogic(c, s.Core).EnhancedChat(types.EnhancedChatArgs{
		Message:       req.Message,
		SessionID:     req.sessionToken(),
		VoiceAnalysis: req.VoiceAnalysis,
	})
	if res.SessionID != "" {
		response.SetSessionID(c, res.SessionID)
	}
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res.Response)
}
