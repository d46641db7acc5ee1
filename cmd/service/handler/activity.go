package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/mindwell-ai/mindwell/app/logic/v1"
	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

func (s *HttpSrv) CreateUserActivity(c *gin.Context) {
	var (
		err error
		req types.CreateUserActivityArgs
	)

	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewUserActivityLogic(c, s.Core).RecordActivity(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}

type ListUserActivitiesRequest struct {
	Limit uint64 `json:"limit" form:"limit" binding:"max=100"`
}

type ListUserActivitiesResponse struct {
	List []types.UserActivity `json:"list"`
}

func (s *HttpSrv) ListUserActivities(c *gin.Context) {
	var (
		err error
		req ListUserActivitiesRequest
	)

	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewUserActivityLogic(c, s.Core).ListRecent(req.Limit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListUserActivitiesResponse{List: list})
}
