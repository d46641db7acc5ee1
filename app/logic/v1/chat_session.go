package v1

import (
	"log/slog"

	"github.com/mindwell-ai/mindwell/pkg/utils"
)

const SESSION_OWNER_CACHE_KEY = "session:owner:"

const (
	SESSION_REUSED                 = "reused"
	SESSION_NEW                    = "new"
	SESSION_MALFORMED              = "malformed"
	SESSION_NOT_OWNED              = "not_owned"
	SESSION_OWNERSHIP_CHECK_FAILED = "ownership_check_failed"
)

func sessionOwnerCacheKey(sessionID string) string {
	return SESSION_OWNER_CACHE_KEY + sessionID
}

// ResolveSession returns the client's session id when it is uuid shaped and the current
// user already wrote to it. Any other token is replaced by a fresh id, never rejected.
func (l *ChatLogic) ResolveSession(token string) string {
	sessionID, reason := l.resolveSession(token)
	l.core.Metrics().SessionResolvedInc(reason)
	return sessionID
}

func (l *ChatLogic) resolveSession(token string) (string, string) {
	userID := l.UserID()
	if token == "" {
		return utils.NewSessionID(), SESSION_NEW
	}

	if !utils.IsUUIDShape(token) {
		slog.Info("discard client session id", slog.String("reason", SESSION_MALFORMED), slog.String("user_id", userID))
		return utils.NewSessionID(), SESSION_MALFORMED
	}

	cacheKey := l.core.CacheKey(sessionOwnerCacheKey(token))
	owner, err := l.core.Cache().Get(l.ctx, cacheKey)
	if err != nil {
		slog.Warn("failed to read session owner cache", slog.String("session_id", token), slog.String("error", err.Error()))
	}
	switch {
	case owner == userID:
		return token, SESSION_REUSED
	case owner != "":
		slog.Info("discard client session id", slog.String("reason", SESSION_NOT_OWNED), slog.String("user_id", userID), slog.String("session_id", token))
		return utils.NewSessionID(), SESSION_NOT_OWNED
	}

	exist, err := l.core.Store().ChatMessageStore().SessionExists(l.ctx, token, userID)
	if err != nil {
		newID := utils.NewSessionID()
		slog.Warn("discard client session id", slog.String("reason", SESSION_OWNERSHIP_CHECK_FAILED), slog.String("user_id", userID),
			slog.String("session_id", token), slog.String("new_session_id", newID), slog.String("error", err.Error()))
		return newID, SESSION_OWNERSHIP_CHECK_FAILED
	}
	if !exist {
		slog.Info("discard client session id", slog.String("reason", SESSION_NOT_OWNED), slog.String("user_id", userID), slog.String("session_id", token))
		return utils.NewSessionID(), SESSION_NOT_OWNED
	}

	l.cacheOwnership(token, userID)
	return token, SESSION_REUSED
}

// messages are never deleted or moved, so a cached owner stays correct for the ttl
func (l *ChatLogic) cacheOwnership(sessionID, userID string) {
	cacheKey := l.core.CacheKey(sessionOwnerCacheKey(sessionID))
	if err := l.core.Cache().SetEx(l.ctx, cacheKey, userID, l.core.Cfg().Redis.OwnershipTTL()); err != nil {
		slog.Warn("failed to cache session owner", slog.String("session_id", sessionID), slog.String("error", err.Error()))
	}
}
