package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "mindwell_"

const (
	TABLE_CHAT_MESSAGE         = TableName("chat_messages")
	TABLE_CONVERSATION_SUMMARY = TableName("conversation_summaries")
	TABLE_USER_ACTIVITY        = TableName("user_activities")
	TABLE_SCHEMA_MIGRATIONS    = TableName("schema_migrations")
)
