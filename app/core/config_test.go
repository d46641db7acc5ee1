package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConfigFromEnv(t *testing.T) {
	addr := "localhost:11111"
	t.Setenv("MINDWELL_API_SERVICE_ADDRESS", addr)
	t.Setenv("MINDWELL_WORKFLOW_URL", "http://workflow.local/run")
	t.Setenv("MINDWELL_WORKFLOW_TIMEOUT_MS", "1500")
	t.Setenv("MINDWELL_JWT_SECRET", "secret")
	t.Setenv("MINDWELL_REDIS_ADDR", "127.0.0.1:6379")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, addr, cfg.Addr)
	assert.Equal(t, "http://workflow.local/run", cfg.Workflow.EndpointURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Workflow.Timeout())
	assert.Equal(t, "secret", cfg.Security.JWTSecret)
	assert.True(t, cfg.Redis.Enabled())
}

func TestNormalizeDefaults(t *testing.T) {
	var cfg CoreConfig
	cfg.Normalize()

	assert.Equal(t, DEFAULT_ADDR, cfg.Addr)
	assert.Equal(t, WORKFLOW_DRIVER_HTTP, cfg.Workflow.Driver)
	assert.Equal(t, 60*time.Second, cfg.Workflow.Timeout())
	assert.Equal(t, 5000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 20, cfg.Chat.RecentMessagesLimit)
	assert.Equal(t, 5, cfg.Chat.ActivitiesLimit)
	assert.Equal(t, 50, cfg.Chat.TitleLength)
	assert.Equal(t, 30, cfg.Limit.ChatPerMinute)
	assert.Equal(t, 24*time.Hour, cfg.Redis.OwnershipTTL())
	assert.False(t, cfg.Redis.Enabled())
}

func TestMustLoadBaseConfig(t *testing.T) {
	raw := `
addr = ":8080"

[log]
level = "info"

[postgres]
dsn = "postgres://localhost/mindwell?sslmode=disable"
auto_migrate = true

[workflow]
driver = "openai"
timeout_ms = 3000

[workflow.openai]
model = "gpt-4o-mini"

[chat]
recent_messages_limit = 10
`
	path := filepath.Join(t.TempDir(), "service.toml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := MustLoadBaseConfig(path)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, WORKFLOW_DRIVER_OPENAI, cfg.Workflow.Driver)
	assert.Equal(t, "gpt-4o-mini", cfg.Workflow.OpenAI.Model)
	assert.Equal(t, DEFAULT_OPENAI_MAX_CONTEXT_TOKENS, cfg.Workflow.OpenAI.MaxContextTokens)
	assert.Equal(t, 3*time.Second, cfg.Workflow.Timeout())
	assert.Equal(t, 10, cfg.Chat.RecentMessagesLimit)
	// untouched sections still get defaults
	assert.Equal(t, 5000, cfg.Chat.MaxMessageLength)
}
