package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/mindwell-ai/mindwell/app/logic/v1"
	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type ListChatSessionRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize" binding:"max=100"`
}

func (s *HttpSrv) ListChatSessions(c *gin.Context) {
	var (
		err error
		req ListChatSessionRequest
	)

	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewChatHistoryLogic(c, s.Core).ListSessions(req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}

type ListChatMessagesRequest struct {
	After int64  `json:"after,string" form:"after"`
	Limit uint64 `json:"limit" form:"limit" binding:"max=200"`
}

func (s *HttpSrv) ListChatMessages(c *gin.Context) {
	var (
		err error
		req ListChatMessagesRequest
	)

	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	sessionID := c.Param("session")
	res, err := v1.NewChatHistoryLogic(c, s.Core).ListMessages(sessionID, req.After, req.Limit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}
