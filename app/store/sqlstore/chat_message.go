package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mindwell-ai/mindwell/pkg/register"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatMessageStore = NewChatMessageStore(provider)
	})
}

const maxChatMessagePageSize = 200

type ChatMessageStore struct {
	CommonFields
}

func NewChatMessageStore(provider SqlProviderAchieve) *ChatMessageStore {
	repo := &ChatMessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_MESSAGE)
	repo.SetAllColumns("id", "session_id", "user_id", "content", "role", "created_at")
	return repo
}

func (s *ChatMessageStore) Create(ctx context.Context, data *types.ChatMessage) error {
	if err := data.Role.Validate(); err != nil {
		return err
	}
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().UnixMilli()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "session_id", "user_id", "content", "role", "created_at").
		Values(data.ID, data.SessionID, data.UserID, data.Content, data.Role, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return err
	}
	return nil
}

func (s *ChatMessageStore) listRecentQuery(sessionID, userID string, limit uint64) sq.SelectBuilder {
	return sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "user_id": userID}).
		OrderBy("created_at DESC, id DESC").
		Limit(normalizeLimit(limit, maxChatMessagePageSize))
}

func (s *ChatMessageStore) ListRecent(ctx context.Context, sessionID, userID string, limit uint64) ([]types.ChatMessage, error) {
	queryString, args, err := s.listRecentQuery(sessionID, userID, limit).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ChatMessage
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatMessageStore) sessionExistsQuery(sessionID, userID string) sq.SelectBuilder {
	return sq.Select("1").From(s.GetTable()).Where(sq.Eq{"session_id": sessionID, "user_id": userID}).Limit(1)
}

func (s *ChatMessageStore) SessionExists(ctx context.Context, sessionID, userID string) (bool, error) {
	queryString, args, err := s.sessionExistsQuery(sessionID, userID).ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	var one int
	if err = s.GetReplica(ctx).Get(&one, queryString, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ChatMessageStore) listSessionMessagesQuery(sessionID, userID string, afterID int64, limit uint64) sq.SelectBuilder {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "user_id": userID})
	if afterID > 0 {
		query = query.Where(sq.Gt{"id": afterID})
	}
	return query.OrderBy("created_at ASC, id ASC").Limit(normalizeLimit(limit, maxChatMessagePageSize))
}

func (s *ChatMessageStore) ListSessionMessages(ctx context.Context, sessionID, userID string, afterID int64, limit uint64) ([]types.ChatMessage, error) {
	queryString, args, err := s.listSessionMessagesQuery(sessionID, userID, afterID, limit).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ChatMessage
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatMessageStore) listUserSessionsQuery(userID string, page, pageSize uint64) sq.SelectBuilder {
	pageSize = normalizeLimit(pageSize, maxChatMessagePageSize)
	return sq.Select("session_id", "COUNT(*) AS message_count", "MAX(created_at) AS last_active_at").
		Column(sq.Expr("COALESCE((ARRAY_AGG(content ORDER BY created_at ASC, id ASC) FILTER (WHERE role = ?))[1], '') AS first_message", types.MESSAGE_ROLE_USER)).
		From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		GroupBy("session_id").
		OrderBy("last_active_at DESC").
		Limit(pageSize).Offset(types.PageOffset(page, pageSize))
}

func (s *ChatMessageStore) ListUserSessions(ctx context.Context, userID string, page, pageSize uint64) ([]types.ChatSessionBrief, error) {
	queryString, args, err := s.listUserSessionsQuery(userID, page, pageSize).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ChatSessionBrief
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatMessageStore) TotalUserSessions(ctx context.Context, userID string) (int64, error) {
	query := sq.Select("COUNT(DISTINCT session_id)").From(s.GetTable()).Where(sq.Eq{"user_id": userID})
	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}
