package core

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Plugins 部署模式相关的能力，由 pkg/plugins 下的实现注入
type Plugins interface {
	Name() string
	Install(*Core) error
	DefaultAppid() string
	UseLimiter(c *gin.Context, key string, method string, opts ...LimitOption) Limiter
}

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

type Limiter interface {
	Allow() bool
}

type SetupFunc func() Plugins

func (c *Core) InstallPlugins(p Plugins) {
	if err := p.Install(c); err != nil {
		panic(err)
	}
	c.Plugins = p
}
