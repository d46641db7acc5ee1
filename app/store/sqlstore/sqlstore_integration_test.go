package sqlstore_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mindwell-ai/mindwell/app/store/sqlstore"
	pkgsqlstore "github.com/mindwell-ai/mindwell/pkg/sqlstore"
	"github.com/mindwell-ai/mindwell/pkg/testutils"
	"github.com/mindwell-ai/mindwell/pkg/types"
	"github.com/mindwell-ai/mindwell/pkg/utils"
)

// setupProvider starts a throwaway postgres, or uses MINDWELL_TEST_POSTGRES_DSN when it is set.
func setupProvider(t *testing.T) *sqlstore.Provider {
	t.Helper()
	testutils.SkipUnlessEnv(t, "MINDWELL_INTEGRATION")
	utils.SetupIDWorker(1)

	ctx := context.Background()
	dsn := os.Getenv("MINDWELL_TEST_POSTGRES_DSN")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		ctr, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("mindwell"),
			postgres.WithUsername("mindwell"),
			postgres.WithPassword("mindwell"),
			postgres.BasicWaitStrategies(),
		)
		testcontainers.CleanupContainer(t, ctr)
		require.NoError(t, err)

		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := sqlstore.NewProvider(pkgsqlstore.NewProvider(db))
	require.NoError(t, p.Install())
	// second run must be a no-op
	require.NoError(t, p.Install())
	return p
}

func newMessage(sessionID, userID, content string, role types.MessageRole, at int64) *types.ChatMessage {
	return &types.ChatMessage{
		ID:        utils.GenUniqID(),
		SessionID: sessionID,
		UserID:    userID,
		Content:   content,
		Role:      role,
		CreatedAt: at,
	}
}

func TestChatMessageStore(t *testing.T) {
	p := setupProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	s := p.ChatMessageStore()
	sid := utils.NewSessionID()
	now := time.Now().UnixMilli()

	for i, content := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.Create(ctx, newMessage(sid, "user-a", content, types.MESSAGE_ROLE_USER, now+int64(i))))
	}

	list, err := s.ListRecent(ctx, sid, "user-a", 20)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "m3", list[0].Content)

	history, err := s.ListSessionMessages(ctx, sid, "user-a", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{history[0].Content, history[1].Content, history[2].Content})

	after, err := s.ListSessionMessages(ctx, sid, "user-a", history[0].ID, 10)
	require.NoError(t, err)
	assert.Len(t, after, 2)

	exists, err := s.SessionExists(ctx, sid, "user-a")
	require.NoError(t, err)
	assert.True(t, exists)

	// another user never sees user-a's rows
	exists, err = s.SessionExists(ctx, sid, "user-b")
	require.NoError(t, err)
	assert.False(t, exists)

	list, err = s.ListRecent(ctx, sid, "user-b", 20)
	require.NoError(t, err)
	assert.Empty(t, list)

	sessions, err := s.ListUserSessions(ctx, "user-a", 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, sessions)
	assert.Equal(t, sid, sessions[0].SessionID)
	assert.Equal(t, "m1", sessions[0].FirstMessage)
	assert.EqualValues(t, 3, sessions[0].MessageCount)

	total, err := s.TotalUserSessions(ctx, "user-a")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
}

func TestSummaryAndActivityStore(t *testing.T) {
	p := setupProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	sid := utils.NewSessionID()
	for i, theme := range []string{"sleep", "exams"} {
		require.NoError(t, p.ChatSummaryStore().Create(ctx, &types.ConversationSummary{
			ID:        utils.GenUniqID(),
			SessionID: sid,
			UserID:    "user-a",
			KeyThemes: types.StringList{theme},
			CreatedAt: time.Now().UnixMilli() + int64(i),
		}))
	}

	summary, err := p.ChatSummaryStore().GetLatest(ctx, sid, "user-a")
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"exams"}, summary.KeyThemes)
	assert.Empty(t, summary.ImportantInsights)

	_, err = p.ChatSummaryStore().GetLatest(ctx, sid, "user-b")
	assert.Error(t, err)

	userID := "user-" + utils.RandomStr(8)
	for i := 0; i < 7; i++ {
		require.NoError(t, p.UserActivityStore().Create(ctx, &types.UserActivity{
			ID:                 utils.GenUniqID(),
			UserID:             userID,
			ActivityType:       "memory_match",
			Score:              float64(10 * i),
			AccuracyPercentage: 80,
			CompletedAt:        time.Now().UnixMilli() + int64(i),
			ActivityData:       types.JSONData(`{"level":2}`),
		}))
	}

	activities, err := p.UserActivityStore().ListRecent(ctx, userID, 5)
	require.NoError(t, err)
	require.Len(t, activities, 5)
	assert.Equal(t, float64(60), activities[0].Score)

	var data map[string]int
	require.NoError(t, json.Unmarshal(activities[0].ActivityData, &data))
	assert.Equal(t, 2, data["level"])
}
