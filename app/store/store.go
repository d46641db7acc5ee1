package store

import (
	"context"

	"github.com/mindwell-ai/mindwell/pkg/sqlstore"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

// Provider 聚合所有 store，logic 层只依赖这个接口
type Provider interface {
	ChatMessageStore() ChatMessageStore
	ChatSummaryStore() ChatSummaryStore
	UserActivityStore() UserActivityStore
	Ping(ctx context.Context) error
}

// ChatMessageStore 消息只追加不修改，所有读取都同时按 session_id 和 user_id 过滤
type ChatMessageStore interface {
	sqlstore.SqlCommons
	// Create 写入一条消息，CreatedAt 为 0 时由服务端填充
	Create(ctx context.Context, data *types.ChatMessage) error
	// ListRecent 按时间倒序返回最近 limit 条消息
	ListRecent(ctx context.Context, sessionID, userID string, limit uint64) ([]types.ChatMessage, error)
	// SessionExists 判断该用户在该会话下是否至少有一条消息
	SessionExists(ctx context.Context, sessionID, userID string) (bool, error)
	// ListSessionMessages 按时间正序分页返回消息，afterID 为 0 时从头开始
	ListSessionMessages(ctx context.Context, sessionID, userID string, afterID int64, limit uint64) ([]types.ChatMessage, error)
	ListUserSessions(ctx context.Context, userID string, page, pageSize uint64) ([]types.ChatSessionBrief, error)
	TotalUserSessions(ctx context.Context, userID string) (int64, error)
}

type ChatSummaryStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.ConversationSummary) error
	// GetLatest returns sql.ErrNoRows when the session has no summary yet.
	GetLatest(ctx context.Context, sessionID, userID string) (*types.ConversationSummary, error)
}

type UserActivityStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.UserActivity) error
	// ListRecent 按完成时间倒序
	ListRecent(ctx context.Context, userID string, limit uint64) ([]types.UserActivity, error)
}
