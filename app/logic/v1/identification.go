package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/security"
)

type _userInfo struct {
	u      *security.TokenClaims
	exists bool
}

func (u *_userInfo) UserID() string {
	return u.u.User
}

// Authenticated 没有经过鉴权中间件的调用一律视为未登录
func (u *_userInfo) Authenticated() error {
	if !u.exists || u.u.User == "" {
		return errors.New("UserInfo.Authenticated", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	return nil
}

func SetupUserInfo(ctx context.Context) UserInfo {
	userInfo, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.setupUserInfo"))
		userInfo = security.TokenClaims{}
	}
	return &_userInfo{
		u:      &userInfo,
		exists: ok,
	}
}

type UserInfo interface {
	UserID() string
	Authenticated() error
}
