package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mindwell-ai/mindwell/pkg/register"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatSummaryStore = NewChatSummaryStore(provider)
	})
}

type ChatSummaryStore struct {
	CommonFields
}

func NewChatSummaryStore(provider SqlProviderAchieve) *ChatSummaryStore {
	repo := &ChatSummaryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CONVERSATION_SUMMARY)
	repo.SetAllColumns("id", "session_id", "user_id", "key_themes", "progress_indicators", "important_insights", "created_at")
	return repo
}

func (s *ChatSummaryStore) getLatestQuery(sessionID, userID string) sq.SelectBuilder {
	return sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "user_id": userID}).
		OrderBy("created_at DESC, id DESC").
		Limit(1)
}

func (s *ChatSummaryStore) GetLatest(ctx context.Context, sessionID, userID string) (*types.ConversationSummary, error) {
	queryString, args, err := s.getLatestQuery(sessionID, userID).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ConversationSummary
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChatSummaryStore) Create(ctx context.Context, data *types.ConversationSummary) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().UnixMilli()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "session_id", "user_id", "key_themes", "progress_indicators", "important_insights", "created_at").
		Values(data.ID, data.SessionID, data.UserID, data.KeyThemes, data.ProgressIndicators, data.ImportantInsights, data.CreatedAt)

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
