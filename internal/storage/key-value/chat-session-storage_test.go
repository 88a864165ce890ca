package key_value

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newTestSession(userID string, createdAt time.Time) model.ChatSession {
	return model.ChatSession{
		User: model.User{ID: userID, FullName: "Ada Lovelace", Email: "ada@example.com"},
		Type: model.BotTypeChat,
		Messages: []model.Message{
			{
				Role:      model.MessageRoleHuman,
				Type:      "text",
				Payload:   json.RawMessage(`{"text":"hello"}`),
				Timestamp: createdAt,
			},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestAIChatStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := NewAIChatStorage(newTestRedis(t))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	created, err := storage.CreateChatSession(ctx, newTestSession("u1", now))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	loaded, err := storage.GetChatSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "u1", loaded.User.ID)
	assert.Equal(t, model.BotTypeChat, loaded.Type)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "hello", loaded.Messages[0].Text())
	assert.True(t, loaded.Messages[0].Timestamp.Equal(now))
	assert.True(t, loaded.CreatedAt.Equal(now))
}

func TestAIChatStorage_GetMissing(t *testing.T) {
	storage := NewAIChatStorage(newTestRedis(t))

	_, err := storage.GetChatSession(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrChatSessionNotFound)
}

func TestAIChatStorage_UpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	storage := NewAIChatStorage(newTestRedis(t))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	created, err := storage.CreateChatSession(ctx, newTestSession("u1", now))
	require.NoError(t, err)

	later := now.Add(time.Second)
	messages := append(created.Messages, model.Message{Role: model.MessageRoleAssistant, Timestamp: later})
	updated, err := storage.UpdateChatSession(
		ctx, created.ID, created.Version, model.ChatSessionUpdate{Messages: messages, UpdatedAt: later},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Len(t, updated.Messages, 2)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(now))

	_, err = storage.UpdateChatSession(
		ctx, created.ID, created.Version, model.ChatSessionUpdate{Messages: created.Messages, UpdatedAt: later},
	)
	assert.ErrorIs(t, err, model.ErrChatSessionVersionConflict)

	loaded, err := storage.GetChatSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 2)

	_, err = storage.UpdateChatSession(ctx, "missing", 1, model.ChatSessionUpdate{})
	assert.ErrorIs(t, err, model.ErrChatSessionNotFound)
}

func TestAIChatStorage_ListUserChatSessions(t *testing.T) {
	ctx := context.Background()
	storage := NewAIChatStorage(newTestRedis(t))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, err := storage.CreateChatSession(ctx, newTestSession("u1", now))
	require.NoError(t, err)
	second, err := storage.CreateChatSession(ctx, newTestSession("u1", now.Add(time.Minute)))
	require.NoError(t, err)
	_, err = storage.CreateChatSession(ctx, newTestSession("u2", now))
	require.NoError(t, err)

	chats, err := storage.ListUserChatSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID)
	assert.Equal(t, first.ID, chats[1].ID)

	chats, err = storage.ListUserChatSessions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, chats)
}
