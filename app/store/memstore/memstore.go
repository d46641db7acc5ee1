// Package memstore keeps every store in process memory. It backs local runs without
// postgres and the logic and handler tests.
package memstore

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mindwell-ai/mindwell/app/store"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

const (
	OP_MESSAGE_CREATE         = "ChatMessageStore.Create"
	OP_MESSAGE_LIST_RECENT    = "ChatMessageStore.ListRecent"
	OP_MESSAGE_SESSION_EXISTS = "ChatMessageStore.SessionExists"
	OP_MESSAGE_LIST_SESSION   = "ChatMessageStore.ListSessionMessages"
	OP_MESSAGE_LIST_USER      = "ChatMessageStore.ListUserSessions"
	OP_SUMMARY_CREATE         = "ChatSummaryStore.Create"
	OP_SUMMARY_GET_LATEST     = "ChatSummaryStore.GetLatest"
	OP_ACTIVITY_CREATE        = "UserActivityStore.Create"
	OP_ACTIVITY_LIST_RECENT   = "UserActivityStore.ListRecent"
	OP_PING                   = "Provider.Ping"
)

// Hook runs before each operation, a non nil error is returned instead of the result.
type Hook func(op string, arg any) error

var _ store.Provider = (*Provider)(nil)

type Provider struct {
	mu         sync.RWMutex
	messages   []types.ChatMessage
	summaries  []types.ConversationSummary
	activities []types.UserActivity
	hook       Hook

	messageStore  *ChatMessageStore
	summaryStore  *ChatSummaryStore
	activityStore *UserActivityStore
}

func New() *Provider {
	p := &Provider{}
	p.messageStore = &ChatMessageStore{p: p}
	p.summaryStore = &ChatSummaryStore{p: p}
	p.activityStore = &UserActivityStore{p: p}
	return p
}

func (p *Provider) SetHook(h Hook) {
	p.mu.Lock()
	p.hook = h
	p.mu.Unlock()
}

func (p *Provider) check(op string, arg any) error {
	p.mu.RLock()
	h := p.hook
	p.mu.RUnlock()
	if h == nil {
		return nil
	}
	return h(op, arg)
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.check(OP_PING, nil)
}

func (p *Provider) ChatMessageStore() store.ChatMessageStore {
	return p.messageStore
}

func (p *Provider) ChatSummaryStore() store.ChatSummaryStore {
	return p.summaryStore
}

func (p *Provider) UserActivityStore() store.UserActivityStore {
	return p.activityStore
}

// Messages returns a copy of every stored message in insert order.
func (p *Provider) Messages() []types.ChatMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]types.ChatMessage(nil), p.messages...)
}

func pageBounds(total int, offset, limit uint64) (int, int) {
	start := int(min(offset, uint64(total)))
	end := total
	if limit > 0 && limit < uint64(end-start) {
		end = start + int(limit)
	}
	return start, end
}

type ChatMessageStore struct {
	p *Provider
}

func (s *ChatMessageStore) GetTable(...interface{}) string {
	return types.TABLE_CHAT_MESSAGE.Name()
}

func (s *ChatMessageStore) Create(ctx context.Context, data *types.ChatMessage) error {
	if err := s.p.check(OP_MESSAGE_CREATE, data); err != nil {
		return err
	}
	if err := data.Role.Validate(); err != nil {
		return err
	}
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().UnixMilli()
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.messages = append(s.p.messages, *data)
	return nil
}

func messageLess(a, b types.ChatMessage) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}

func (s *ChatMessageStore) owned(sessionID, userID string) []types.ChatMessage {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()
	list := lo.Filter(s.p.messages, func(item types.ChatMessage, _ int) bool {
		return item.SessionID == sessionID && item.UserID == userID
	})
	sort.SliceStable(list, func(i, j int) bool { return messageLess(list[i], list[j]) })
	return list
}

func (s *ChatMessageStore) ListRecent(ctx context.Context, sessionID, userID string, limit uint64) ([]types.ChatMessage, error) {
	if err := s.p.check(OP_MESSAGE_LIST_RECENT, sessionID); err != nil {
		return nil, err
	}
	list := lo.Reverse(s.owned(sessionID, userID))
	start, end := pageBounds(len(list), 0, limit)
	return list[start:end], nil
}

func (s *ChatMessageStore) SessionExists(ctx context.Context, sessionID, userID string) (bool, error) {
	if err := s.p.check(OP_MESSAGE_SESSION_EXISTS, sessionID); err != nil {
		return false, err
	}
	return len(s.owned(sessionID, userID)) > 0, nil
}

func (s *ChatMessageStore) ListSessionMessages(ctx context.Context, sessionID, userID string, afterID int64, limit uint64) ([]types.ChatMessage, error) {
	if err := s.p.check(OP_MESSAGE_LIST_SESSION, sessionID); err != nil {
		return nil, err
	}
	list := lo.Filter(s.owned(sessionID, userID), func(item types.ChatMessage, _ int) bool {
		return item.ID > afterID
	})
	start, end := pageBounds(len(list), 0, limit)
	return list[start:end], nil
}

func (s *ChatMessageStore) userSessions(userID string) []types.ChatSessionBrief {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	idx := map[string]*types.ChatSessionBrief{}
	var order []string
	var firstAt = map[string]int64{}
	for _, m := range s.p.messages {
		if m.UserID != userID {
			continue
		}
		b, ok := idx[m.SessionID]
		if !ok {
			b = &types.ChatSessionBrief{SessionID: m.SessionID}
			idx[m.SessionID] = b
			order = append(order, m.SessionID)
		}
		b.MessageCount++
		b.LastActiveAt = max(b.LastActiveAt, m.CreatedAt)
		if m.Role == types.MESSAGE_ROLE_USER {
			if at, ok := firstAt[m.SessionID]; !ok || m.CreatedAt < at {
				firstAt[m.SessionID] = m.CreatedAt
				b.FirstMessage = m.Content
			}
		}
	}

	list := lo.Map(order, func(id string, _ int) types.ChatSessionBrief { return *idx[id] })
	sort.SliceStable(list, func(i, j int) bool { return list[i].LastActiveAt > list[j].LastActiveAt })
	return list
}

func (s *ChatMessageStore) ListUserSessions(ctx context.Context, userID string, page, pageSize uint64) ([]types.ChatSessionBrief, error) {
	if err := s.p.check(OP_MESSAGE_LIST_USER, userID); err != nil {
		return nil, err
	}
	list := s.userSessions(userID)
	start, end := pageBounds(len(list), types.PageOffset(page, pageSize), pageSize)
	return list[start:end], nil
}

func (s *ChatMessageStore) TotalUserSessions(ctx context.Context, userID string) (int64, error) {
	if err := s.p.check(OP_MESSAGE_LIST_USER, userID); err != nil {
		return 0, err
	}
	return int64(len(s.userSessions(userID))), nil
}

type ChatSummaryStore struct {
	p *Provider
}

func (s *ChatSummaryStore) GetTable(...interface{}) string {
	return types.TABLE_CONVERSATION_SUMMARY.Name()
}

func (s *ChatSummaryStore) Create(ctx context.Context, data *types.ConversationSummary) error {
	if err := s.p.check(OP_SUMMARY_CREATE, data); err != nil {
		return err
	}
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().UnixMilli()
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.summaries = append(s.p.summaries, *data)
	return nil
}

func (s *ChatSummaryStore) GetLatest(ctx context.Context, sessionID, userID string) (*types.ConversationSummary, error) {
	if err := s.p.check(OP_SUMMARY_GET_LATEST, sessionID); err != nil {
		return nil, err
	}
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	var latest *types.ConversationSummary
	for i := range s.p.summaries {
		v := s.p.summaries[i]
		if v.SessionID != sessionID || v.UserID != userID {
			continue
		}
		if latest == nil || v.CreatedAt > latest.CreatedAt || (v.CreatedAt == latest.CreatedAt && v.ID > latest.ID) {
			latest = &v
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}

type UserActivityStore struct {
	p *Provider
}

func (s *UserActivityStore) GetTable(...interface{}) string {
	return types.TABLE_USER_ACTIVITY.Name()
}

func (s *UserActivityStore) Create(ctx context.Context, data *types.UserActivity) error {
	if err := s.p.check(OP_ACTIVITY_CREATE, data); err != nil {
		return err
	}
	if data.CompletedAt == 0 {
		data.CompletedAt = time.Now().UnixMilli()
	}
	item := *data
	item.ActivityData = bytes.Clone(data.ActivityData)
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.activities = append(s.p.activities, item)
	return nil
}

func (s *UserActivityStore) ListRecent(ctx context.Context, userID string, limit uint64) ([]types.UserActivity, error) {
	if err := s.p.check(OP_ACTIVITY_LIST_RECENT, userID); err != nil {
		return nil, err
	}
	s.p.mu.RLock()
	list := lo.Filter(s.p.activities, func(item types.UserActivity, _ int) bool {
		return item.UserID == userID
	})
	s.p.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CompletedAt != list[j].CompletedAt {
			return list[i].CompletedAt > list[j].CompletedAt
		}
		return list[i].ID > list[j].ID
	})
	start, end := pageBounds(len(list), 0, limit)
	return list[start:end], nil
}
