package types

import (
	"context"
	"time"
)

// Cache 接口定义了缓存操作的基本方法
// Get 在 key 不存在时返回空字符串和 nil error
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	Ping(ctx context.Context) error
}
