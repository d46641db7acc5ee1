package selfhost

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/pkg/plugins"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

const NAME = "selfhost"

// 空闲超过一个窗口的桶已经回满，删掉与保留等价
const limiterSweepInterval = time.Minute

func init() {
	plugins.RegisterProvider(NAME, NewSelfHostMode())
}

var _ core.Plugins = (*SelfHostPlugin)(nil)

func NewSelfHostMode() *SelfHostPlugin {
	return &SelfHostPlugin{
		Appid:    types.DEFAULT_APPID,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

type SelfHostPlugin struct {
	core  *core.Core
	Appid string

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func (s *SelfHostPlugin) Name() string {
	return NAME
}

func (s *SelfHostPlugin) DefaultAppid() string {
	return s.Appid
}

func (s *SelfHostPlugin) Install(c *core.Core) error {
	s.core = c
	utils.SetupIDWorker(1)
	slog.Info("plugin installed", slog.String("plugin", NAME), slog.String("workflow_driver", c.Workflow().Name()))
	return nil
}

// UseLimiter 每个 key 一个令牌桶，默认每分钟 60 次
func (s *SelfHostPlugin) UseLimiter(c *gin.Context, key string, method string, opts ...core.LimitOption) core.Limiter {
	cfg := &core.LimitConfig{
		Limit: 60,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Every <= 0 {
		cfg.Every = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterSweepInterval {
		s.sweep(now)
	}

	e, exist := s.limiters[key]
	if !exist {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(cfg.Every/time.Duration(cfg.Limit)), cfg.Limit),
			window:  cfg.Every,
		}
		s.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep 需持有 s.mu
func (s *SelfHostPlugin) sweep(now time.Time) {
	for key, e := range s.limiters {
		if now.Sub(e.lastSeen) > e.window {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}
