package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type UserActivityLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewUserActivityLogic(ctx context.Context, core *core.Core) *UserActivityLogic {
	return &UserActivityLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

const (
	MAX_ACTIVITY_TYPE_LENGTH = 64
	MAX_ACTIVITY_DATA_SIZE   = 16 << 10
	DEFAULT_ACTIVITY_LIMIT   = 20
)

func invalidActivity(reason string) error {
	return errors.New("UserActivityLogic.validate", i18n.ERROR_INVALIDARGUMENT, fmt.Errorf("%s", reason)).Code(http.StatusBadRequest)
}

func validateActivity(args *types.CreateUserActivityArgs) error {
	args.ActivityType = strings.TrimSpace(args.ActivityType)
	switch {
	case args.ActivityType == "":
		return invalidActivity("activity_type is required")
	case utils.CountChars(args.ActivityType) > MAX_ACTIVITY_TYPE_LENGTH:
		return invalidActivity("activity_type is too long")
	case math.IsNaN(args.Score) || math.IsInf(args.Score, 0) || args.Score < 0:
		return invalidActivity("score must be a non negative number")
	case math.IsNaN(args.AccuracyPercentage) || args.AccuracyPercentage < 0 || args.AccuracyPercentage > 100:
		return invalidActivity("accuracy_percentage must be between 0 and 100")
	case args.CompletedAt < 0:
		return invalidActivity("completed_at must be a unix millisecond timestamp")
	}

	data := bytes.TrimSpace(args.ActivityData)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if len(data) > MAX_ACTIVITY_DATA_SIZE {
			return invalidActivity("activity_data is too large")
		}
		if data[0] != '{' || !json.Valid(data) {
			return invalidActivity("activity_data must be a json object")
		}
		args.ActivityData = data
	} else {
		args.ActivityData = nil
	}
	return nil
}

// RecordActivity 记录一次完成的练习，分数由客户端计算
func (l *UserActivityLogic) RecordActivity(args types.CreateUserActivityArgs) (*types.UserActivity, error) {
	if err := l.Authenticated(); err != nil {
		return nil, err
	}
	if err := validateActivity(&args); err != nil {
		return nil, err
	}
	if args.CompletedAt == 0 {
		args.CompletedAt = time.Now().UnixMilli()
	}

	activity := &types.UserActivity{
		ID:                 utils.GenUniqID(),
		UserID:             l.UserID(),
		ActivityType:       args.ActivityType,
		Score:              args.Score,
		AccuracyPercentage: args.AccuracyPercentage,
		CompletedAt:        args.CompletedAt,
		ActivityData:       types.JSONData(args.ActivityData),
	}
	if err := l.core.Store().UserActivityStore().Create(l.ctx, activity); err != nil {
		return nil, errors.New("UserActivityLogic.RecordActivity.UserActivityStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return activity, nil
}

func (l *UserActivityLogic) ListRecent(limit uint64) ([]types.UserActivity, error) {
	if err := l.Authenticated(); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DEFAULT_ACTIVITY_LIMIT
	}
	list, err := l.core.Store().UserActivityStore().ListRecent(l.ctx, l.UserID(), limit)
	if err != nil {
		return nil, errors.New("UserActivityLogic.ListRecent.UserActivityStore.ListRecent", i18n.ERROR_INTERNAL, err)
	}
	if list == nil {
		list = []types.UserActivity{}
	}
	return list, nil
}
