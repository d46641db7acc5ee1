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
		provider.stores.UserActivityStore = NewUserActivityStore(provider)
	})
}

const maxUserActivityPageSize = 100

type UserActivityStore struct {
	CommonFields
}

func NewUserActivityStore(provider SqlProviderAchieve) *UserActivityStore {
	repo := &UserActivityStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_USER_ACTIVITY)
	repo.SetAllColumns("id", "user_id", "activity_type", "score", "accuracy_percentage", "completed_at", "activity_data")
	return repo
}

func (s *UserActivityStore) Create(ctx context.Context, data *types.UserActivity) error {
	if data.CompletedAt == 0 {
		data.CompletedAt = time.Now().UnixMilli()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "user_id", "activity_type", "score", "accuracy_percentage", "completed_at", "activity_data").
		Values(data.ID, data.UserID, data.ActivityType, data.Score, data.AccuracyPercentage, data.CompletedAt, data.ActivityData)

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

func (s *UserActivityStore) listRecentQuery(userID string, limit uint64) sq.SelectBuilder {
	return sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("completed_at DESC, id DESC").
		Limit(normalizeLimit(limit, maxUserActivityPageSize))
}

func (s *UserActivityStore) ListRecent(ctx context.Context, userID string, limit uint64) ([]types.UserActivity, error) {
	queryString, args, err := s.listRecentQuery(userID, limit).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.UserActivity
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
