package types

import (
	"fmt"
)

// ChatMessage 会话中的一条消息，写入后不可修改
type ChatMessage struct {
	ID        int64       `db:"id" json:"id,string"`
	SessionID string      `db:"session_id" json:"session_id"`
	UserID    string      `db:"user_id" json:"user_id"`
	Content   string      `db:"content" json:"content"`
	Role      MessageRole `db:"role" json:"role"`
	CreatedAt int64       `db:"created_at" json:"created_at"`
}

type MessageRole string

const (
	MESSAGE_ROLE_USER      MessageRole = "user"
	MESSAGE_ROLE_ASSISTANT MessageRole = "assistant"
)

func (r MessageRole) String() string {
	return string(r)
}

func (r MessageRole) Valid() bool {
	return r == MESSAGE_ROLE_USER || r == MESSAGE_ROLE_ASSISTANT
}

// Validate 存储层在写入前调用，数据库 role 列有同样的约束
func (r MessageRole) Validate() error {
	if !r.Valid() {
		return fmt.Errorf("unknown message role %q", string(r))
	}
	return nil
}

// ChatSessionBrief is a session as seen from the message log. Sessions are not
// stored on their own, every field here is aggregated from chat message rows.
type ChatSessionBrief struct {
	SessionID    string `db:"session_id" json:"session_id"`
	FirstMessage string `db:"first_message" json:"-"`
	Title        string `db:"-" json:"title"`
	MessageCount int64  `db:"message_count" json:"message_count"`
	LastActiveAt int64  `db:"last_active_at" json:"last_active_at"`
}
