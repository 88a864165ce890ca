package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIChatStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	storage := NewAIChatStorage()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	created, err := storage.CreateChatSession(
		ctx, model.ChatSession{
			User:      model.User{ID: "u1"},
			Type:      model.BotTypeChat,
			Messages:  []model.Message{{Role: model.MessageRoleHuman, Timestamp: now}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	created.Messages[0].Role = model.MessageRoleSystem
	loaded, err := storage.GetChatSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MessageRoleHuman, loaded.Messages[0].Role, "stored messages must not alias returned ones")

	later := now.Add(time.Second)
	updated, err := storage.UpdateChatSession(
		ctx, created.ID, 1, model.ChatSessionUpdate{
			Messages:  append(loaded.Messages, model.Message{Role: model.MessageRoleAssistant}),
			UpdatedAt: later,
		},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Len(t, updated.Messages, 2)

	_, err = storage.UpdateChatSession(ctx, created.ID, 1, model.ChatSessionUpdate{UpdatedAt: later})
	assert.ErrorIs(t, err, model.ErrChatSessionVersionConflict)

	_, err = storage.GetChatSession(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrChatSessionNotFound)

	chats, err := storage.ListUserChatSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ID, chats[0].ID)
}

func TestToolSessionStorage_NewestFirst(t *testing.T) {
	ctx := context.Background()
	storage := NewToolSessionStorage()

	first, err := storage.CreateToolSession(ctx, model.ToolSession{UserID: "u1", ToolID: "0"})
	require.NoError(t, err)
	second, err := storage.CreateToolSession(ctx, model.ToolSession{UserID: "u1", ToolID: "1"})
	require.NoError(t, err)
	_, err = storage.CreateToolSession(ctx, model.ToolSession{UserID: "u2", ToolID: "1"})
	require.NoError(t, err)

	sessions, err := storage.ListUserToolSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
}
