package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindwell-ai/mindwell/app/response"
	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type HealthzResponse struct {
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	Timestamp string `json:"timestamp"`
}

func (s *HttpSrv) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	if err := s.Core.Ping(ctx); err != nil {
		response.APIError(c, errors.New("api.Healthz.Ping", i18n.ERROR_INTERNAL, err).Code(http.StatusServiceUnavailable))
		return
	}

	mode := ""
	if s.Core.Plugins != nil {
		mode = s.Core.Plugins.Name()
	}
	response.APISuccess(c, HealthzResponse{
		Status:    "ok",
		Mode:      mode,
		Timestamp: utils.NowTimestamp(),
	})
}
