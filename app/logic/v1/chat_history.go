package v1

import (
	"context"
	"net/http"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type ChatHistoryLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatHistoryLogic(ctx context.Context, core *core.Core) *ChatHistoryLogic {
	return &ChatHistoryLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

const (
	DEFAULT_SESSION_PAGE_SIZE = 20
	DEFAULT_MESSAGE_PAGE_SIZE = 50
)

// ListSessions 会话列表从消息表聚合得到，标题取首条用户消息
func (l *ChatHistoryLogic) ListSessions(page, pageSize uint64) (types.ListChatSessionsResult, error) {
	var result types.ListChatSessionsResult
	if err := l.Authenticated(); err != nil {
		return result, err
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DEFAULT_SESSION_PAGE_SIZE
	}

	list, err := l.core.Store().ChatMessageStore().ListUserSessions(l.ctx, l.UserID(), page, pageSize)
	if err != nil {
		return result, errors.New("ChatHistoryLogic.ListSessions.ChatMessageStore.ListUserSessions", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().ChatMessageStore().TotalUserSessions(l.ctx, l.UserID())
	if err != nil {
		return result, errors.New("ChatHistoryLogic.ListSessions.ChatMessageStore.TotalUserSessions", i18n.ERROR_INTERNAL, err)
	}

	titleLength := l.core.Cfg().Chat.TitleLength
	for i := range list {
		list[i].Title = utils.SessionTitle(list[i].FirstMessage, titleLength)
	}
	if list == nil {
		list = []types.ChatSessionBrief{}
	}

	result.List = list
	result.Total = total
	return result, nil
}

// ListMessages pages a session forward from afterID. Sessions of other users read as empty.
func (l *ChatHistoryLogic) ListMessages(sessionID string, afterID int64, limit uint64) (types.ListChatMessagesResult, error) {
	result := types.ListChatMessagesResult{SessionID: sessionID}
	if err := l.Authenticated(); err != nil {
		return result, err
	}
	if !utils.IsUUIDShape(sessionID) {
		return result, errors.New("ChatHistoryLogic.ListMessages.IsUUIDShape", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if limit == 0 {
		limit = DEFAULT_MESSAGE_PAGE_SIZE
	}

	list, err := l.core.Store().ChatMessageStore().ListSessionMessages(l.ctx, sessionID, l.UserID(), afterID, limit)
	if err != nil {
		return result, errors.New("ChatHistoryLogic.ListMessages.ChatMessageStore.ListSessionMessages", i18n.ERROR_INTERNAL, err)
	}
	if list == nil {
		list = []types.ChatMessage{}
	}
	result.List = list
	return result, nil
}
