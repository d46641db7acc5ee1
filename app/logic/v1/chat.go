package v1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/pkg/ai"
	"github.com/mindwell-ai/mindwell/pkg/errors"
	"github.com/mindwell-ai/mindwell/pkg/i18n"
	"github.com/mindwell-ai/mindwell/pkg/safe"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

func GenUserTextMessage(sessionID, userID string, msgID int64, message string) *types.ChatMessage {
	return &types.ChatMessage{
		ID:        msgID,
		SessionID: sessionID,
		UserID:    userID,
		Role:      types.MESSAGE_ROLE_USER,
		Content:   message,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// EnhancedChatResult carries the resolved session id even when the turn failed,
// the error envelope echoes it.
type EnhancedChatResult struct {
	SessionID string
	State     types.TurnState
	Response  *types.EnhancedChatResponse
}

// ValidateMessage checks a raw json "message" value and returns the trimmed text.
func ValidateMessage(raw json.RawMessage, maxLength int) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("ChatLogic.ValidateMessage.empty", i18n.ERROR_MESSAGE_EMPTY, nil).Code(http.StatusBadRequest)
	}

	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return "", errors.New("ChatLogic.ValidateMessage.type", i18n.ERROR_INVALIDARGUMENT, fmt.Errorf("message must be a string")).Code(http.StatusBadRequest)
	}

	return ValidateMessageText(message, maxLength)
}

func ValidateMessageText(message string, maxLength int) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("ChatLogic.ValidateMessageText.empty", i18n.ERROR_MESSAGE_EMPTY, nil).Code(http.StatusBadRequest)
	}
	if n := utils.CountChars(message); n > maxLength {
		return "", errors.New("ChatLogic.ValidateMessageText.length", i18n.ERROR_MESSAGE_TOO_LONG,
			fmt.Errorf("message has %d characters, the limit is %d", n, maxLength)).
			Code(http.StatusBadRequest).
			WithData(map[string]interface{}{"max": maxLength})
	}
	return message, nil
}

// normalizeVoiceAnalysis keeps voice analysis only when it is a json object.
func normalizeVoiceAnalysis(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '{' || !json.Valid(raw) {
		slog.Debug("ignore non object voice analysis", slog.String("component", "ChatLogic"), slog.Int("size", len(raw)))
		return nil
	}
	return raw
}

func (l *ChatLogic) EnhancedChat(args types.EnhancedChatArgs) (result EnhancedChatResult, err error) {
	start := time.Now()
	result.State = types.TURN_RECEIVED
	defer func() {
		attrs := []any{
			slog.String("state", string(result.State)),
			slog.String("session_id", result.SessionID),
			slog.String("user_id", l.UserID()),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Info("chat turn finished", attrs...)
	}()

	if err = l.Authenticated(); err != nil {
		result.State = types.TURN_AUTH_FAILED
		return result, err
	}
	result.State = types.TURN_AUTHENTICATED

	cfg := l.core.Cfg().Chat
	message, err := ValidateMessage(args.Message, cfg.MaxMessageLength)
	if err != nil {
		result.State = types.TURN_VALIDATION_FAILED
		return result, err
	}

	result.SessionID = l.ResolveSession(args.SessionID)
	result.State = types.TURN_SESSION_RESOLVED

	userMessage := GenUserTextMessage(result.SessionID, l.UserID(), utils.GenUniqID(), message)
	wctx, err := l.LoadContext(userMessage)
	if err != nil {
		result.State = types.TURN_FAILED
		return result, errors.Trace("ChatLogic.EnhancedChat", err)
	}
	wctx.VoiceAnalysis = normalizeVoiceAnalysis(args.VoiceAnalysis)
	result.State = types.TURN_USER_MESSAGE_PERSISTED

	driver := l.core.Workflow()
	timer := l.core.Metrics().WorkflowResponseTimer(driver.Name())
	callStart := time.Now()
	reply, err := func() (*types.WorkflowReply, error) {
		defer l.core.Metrics().WorkflowInflight(driver.Name())()
		return driver.Run(l.ctx, wctx)
	}()
	elapsed := float64(time.Since(callStart).Milliseconds())
	timer.ObserveDuration()
	result.State = types.TURN_WORKFLOW_CALLED
	if err != nil {
		var state types.TurnState
		state, err = l.convertWorkflowError(err)
		result.State = state
		return result, err
	}
	result.State = types.TURN_REPLY_VALIDATED

	if err := l.core.Store().ChatMessageStore().Create(l.ctx, &types.ChatMessage{
		ID:        utils.GenUniqID(),
		SessionID: result.SessionID,
		UserID:    l.UserID(),
		Content:   reply.Message,
		Role:      types.MESSAGE_ROLE_ASSISTANT,
		CreatedAt: time.Now().UnixMilli(),
	}); err != nil {
		slog.Warn("failed to persist assistant message", slog.String("session_id", result.SessionID),
			slog.String("user_id", l.UserID()), slog.String("error", err.Error()))
	} else {
		result.State = types.TURN_ASSISTANT_MESSAGE_PERSISTED
	}

	result.Response = &types.EnhancedChatResponse{
		Message:        reply.Message,
		SessionID:      result.SessionID,
		SessionTitle:   utils.SessionTitle(message, cfg.TitleLength),
		Modality:       lo.Ternary(reply.Modality == "", types.DEFAULT_MODALITY, reply.Modality),
		ProcessingTime: lo.Ternary(reply.ProcessingTime > 0, reply.ProcessingTime, elapsed),
		Debug: types.ChatDebugInfo{
			ActivitiesFound:     len(wctx.UserActivities),
			RecentMessagesCount: len(wctx.RecentMessages),
			HasSummary:          wctx.HasSummary(),
			UserID:              l.UserID(),
			SessionID:           result.SessionID,
			Timestamp:           utils.NowTimestamp(),
		},
	}
	result.State = types.TURN_RESPONDED
	return result, nil
}

func (l *ChatLogic) convertWorkflowError(err error) (types.TurnState, error) {
	trace := "ChatLogic.EnhancedChat.Workflow.Run"
	switch {
	case errors.Is(err, ai.ErrWorkflowUnavailable):
		l.core.Metrics().WorkflowErrorInc("unavailable")
		return types.TURN_WORKFLOW_UNAVAILABLE, errors.New(trace, i18n.ERROR_WORKFLOW_UNAVAILABLE, err)
	case errors.Is(err, ai.ErrWorkflowError):
		l.core.Metrics().WorkflowErrorInc("status")
		return types.TURN_WORKFLOW_ERROR, errors.New(trace, i18n.ERROR_WORKFLOW_STATUS, err)
	case errors.Is(err, ai.ErrWorkflowInvalidResponse):
		l.core.Metrics().WorkflowErrorInc("invalid_response")
		return types.TURN_WORKFLOW_INVALID_RESPONSE, errors.New(trace, i18n.ERROR_WORKFLOW_INVALID_RESPONSE, err)
	default:
		l.core.Metrics().WorkflowErrorInc("unknown")
		return types.TURN_FAILED, errors.New(trace, i18n.ERROR_INTERNAL, err)
	}
}

// LoadContext reads history, summary and activities while the user message is written.
// The user message id is fixed up front so the history never contains the current turn.
func (l *ChatLogic) LoadContext(userMessage *types.ChatMessage) (*types.WorkflowContext, error) {
	var (
		eg  errgroup.Group
		cfg = l.core.Cfg().Chat
		m   = l.core.Metrics()

		recent     []types.ChatMessage
		summary    *types.ConversationSummary
		activities []types.UserActivity
	)

	sessionID, userID := userMessage.SessionID, userMessage.UserID
	lang, _ := InjectLanguage(l.ctx)

	eg.Go(safe.Guard("ChatLogic.LoadContext.ListRecent", func() error {
		defer m.ContextLoadTimer("recent_messages").ObserveDuration()
		// 多取一条，并发写入的本轮消息可能已经落库
		list, err := l.core.Store().ChatMessageStore().ListRecent(l.ctx, sessionID, userID, uint64(cfg.RecentMessagesLimit)+1)
		if err != nil {
			return errors.New("ChatLogic.LoadContext.ChatMessageStore.ListRecent", i18n.ERROR_INTERNAL, err)
		}
		list = lo.Filter(list, func(item types.ChatMessage, _ int) bool {
			return item.ID != userMessage.ID
		})
		if len(list) > cfg.RecentMessagesLimit {
			list = list[:cfg.RecentMessagesLimit]
		}
		recent = lo.Reverse(list)
		return nil
	}))

	eg.Go(func() error {
		err := safe.Guard("ChatLogic.LoadContext.GetLatestSummary", func() error {
			defer m.ContextLoadTimer("summary").ObserveDuration()
			res, err := l.core.Store().ChatSummaryStore().GetLatest(l.ctx, sessionID, userID)
			if err != nil {
				if err == sql.ErrNoRows {
					return nil
				}
				return err
			}
			summary = res
			return nil
		})()
		if err != nil {
			slog.Warn("failed to load conversation summary", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
		return nil
	})

	eg.Go(func() error {
		err := safe.Guard("ChatLogic.LoadContext.ListActivities", func() error {
			defer m.ContextLoadTimer("activities").ObserveDuration()
			list, err := l.core.Store().UserActivityStore().ListRecent(l.ctx, userID, uint64(cfg.ActivitiesLimit))
			if err != nil {
				return err
			}
			activities = list
			return nil
		})()
		if err != nil {
			slog.Warn("failed to load user activities", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
		return nil
	})

	eg.Go(safe.Guard("ChatLogic.LoadContext.CreateUserMessage", func() error {
		defer m.ContextLoadTimer("persist_user_message").ObserveDuration()
		if err := l.core.Store().ChatMessageStore().Create(l.ctx, userMessage); err != nil {
			return errors.New("ChatLogic.LoadContext.ChatMessageStore.Create", i18n.ERROR_INTERNAL, err)
		}
		return nil
	}))

	if err := eg.Wait(); err != nil {
		if _, ok := err.(*errors.CustomizedError); ok {
			return nil, err
		}
		return nil, errors.New("ChatLogic.LoadContext", i18n.ERROR_INTERNAL, err)
	}

	l.cacheOwnership(sessionID, userID)

	if recent == nil {
		recent = []types.ChatMessage{}
	}
	if activities == nil {
		activities = []types.UserActivity{}
	}

	return &types.WorkflowContext{
		UserMessage:         userMessage.Content,
		RecentMessages:      recent,
		ConversationSummary: summary,
		UserActivities:      activities,
		UserPatterns:        types.BuildUserPatterns(activities),
		UserID:              userID,
		SessionID:           sessionID,
		Language:            lang,
	}, nil
}
