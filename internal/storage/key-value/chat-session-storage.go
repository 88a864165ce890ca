package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/redis/go-redis/v9"
)

type chatInternal struct {
	ID        string          `json:"id"`
	User      model.User      `json:"user"`
	Type      model.BotType   `json:"type"`
	Messages  []model.Message `json:"messages"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Version   int64           `json:"version"`
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type AIChatStorage struct {
	rdb *redis.Client
}

func NewAIChatStorage(rdb *redis.Client) *AIChatStorage {
	return &AIChatStorage{
		rdb: rdb,
	}
}

func (a *AIChatStorage) CreateChatSession(ctx context.Context, session model.ChatSession) (model.ChatSession, error) {
	session.ID = uuid.New().String()
	session.Version = 1
	chatInt := toChatInternal(session)

	chatIntJSON, err := json.Marshal(chatInt)
	if err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to marshal internal chat: %w", err)
	}
	created, err := a.rdb.SetNX(ctx, getChatIDKey(session.ID), chatIntJSON, 0).Result()
	if err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to save chat %s: %w", session.ID, err)
	}
	if !created {
		return model.ChatSession{}, fmt.Errorf("chat %s already exists", session.ID)
	}
	if err = a.rdb.RPush(ctx, getUserChatsKey(session.User.ID), session.ID).Err(); err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to index chat %s for user: %w", session.ID, err)
	}
	return fromChatInternal(chatInt), nil
}

func (a *AIChatStorage) GetChatSession(ctx context.Context, chatID string) (model.ChatSession, error) {
	chatInt, err := a.getChatInt(ctx, a.rdb, chatID)
	if err != nil {
		return model.ChatSession{}, err
	}
	return fromChatInternal(chatInt), nil
}

// UpdateChatSession writes the update only if the stored version still equals
// version. The check and the write run under WATCH so a concurrent writer
// makes the transaction fail instead of being overwritten.
func (a *AIChatStorage) UpdateChatSession(
	ctx context.Context,
	chatID string,
	version int64,
	update model.ChatSessionUpdate,
) (model.ChatSession, error) {
	chatIDKey := getChatIDKey(chatID)
	var updated chatInternal

	err := a.rdb.Watch(
		ctx, func(tx *redis.Tx) error {
			chatInt, err := a.getChatInt(ctx, tx, chatID)
			if err != nil {
				return err
			}
			if chatInt.Version != version {
				return model.ErrChatSessionVersionConflict
			}
			chatInt.Messages = update.Messages
			chatInt.UpdatedAt = update.UpdatedAt
			chatInt.Version++

			chatIntJSON, err := json.Marshal(chatInt)
			if err != nil {
				return fmt.Errorf("failed to marshal internal chat: %w", err)
			}
			_, err = tx.TxPipelined(
				ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, chatIDKey, chatIntJSON, 0)
					return nil
				},
			)
			if err != nil {
				return err
			}
			updated = chatInt
			return nil
		}, chatIDKey,
	)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return model.ChatSession{}, model.ErrChatSessionVersionConflict
		}
		if errors.Is(err, model.ErrChatSessionNotFound) || errors.Is(err, model.ErrChatSessionVersionConflict) {
			return model.ChatSession{}, err
		}
		return model.ChatSession{}, fmt.Errorf("failed to update chat %s: %w", chatID, err)
	}
	return fromChatInternal(updated), nil
}

func (a *AIChatStorage) ListUserChatSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	chatIDs, err := a.rdb.LRange(ctx, getUserChatsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user chats ids: %w", err)
	}
	chats := make([]model.ChatSession, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		chatInt, err := a.getChatInt(ctx, a.rdb, chatID)
		if err != nil {
			if errors.Is(err, model.ErrChatSessionNotFound) {
				continue
			}
			return nil, err
		}
		chats = append(chats, fromChatInternal(chatInt))
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (a *AIChatStorage) getChatInt(ctx context.Context, c stringGetter, chatID string) (chatInternal, error) {
	chatIDKey := getChatIDKey(chatID)
	chatIntRaw, err := c.Get(ctx, chatIDKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return chatInternal{}, model.ErrChatSessionNotFound
		}
		return chatInternal{}, fmt.Errorf("failed to get chat %s: %w", chatID, err)
	}
	var chatInt chatInternal
	if err = json.Unmarshal([]byte(chatIntRaw), &chatInt); err != nil {
		return chatInternal{}, fmt.Errorf("failed to unmarshal chat %s: %w", chatID, err)
	}
	return chatInt, nil
}

func toChatInternal(session model.ChatSession) chatInternal {
	messages := session.Messages
	if messages == nil {
		messages = make([]model.Message, 0)
	}
	return chatInternal{
		ID:        session.ID,
		User:      session.User,
		Type:      session.Type,
		Messages:  messages,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Version:   session.Version,
	}
}

func fromChatInternal(chatInt chatInternal) model.ChatSession {
	return model.ChatSession{
		ID:        chatInt.ID,
		User:      chatInt.User,
		Type:      chatInt.Type,
		Messages:  chatInt.Messages,
		CreatedAt: chatInt.CreatedAt,
		UpdatedAt: chatInt.UpdatedAt,
		Version:   chatInt.Version,
	}
}

func getChatIDKey(chatID string) string {
	return fmt.Sprintf("chat_session_%s", chatID)
}

func getUserChatsKey(userID string) string {
	return fmt.Sprintf("user_chat_sessions_%s", userID)
}
