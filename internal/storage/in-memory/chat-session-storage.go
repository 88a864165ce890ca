package in_memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
)

type AIChatStorage struct {
	mu        sync.RWMutex
	chats     map[string]*model.ChatSession
	userChats map[string][]string
}

func NewAIChatStorage() *AIChatStorage {
	return &AIChatStorage{
		chats:     make(map[string]*model.ChatSession),
		userChats: make(map[string][]string),
	}
}

func (a *AIChatStorage) CreateChatSession(_ context.Context, session model.ChatSession) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session.ID = uuid.New().String()
	session.Version = 1
	session.Messages = copyMessages(session.Messages)

	stored := session
	a.chats[session.ID] = &stored
	a.userChats[session.User.ID] = append(a.userChats[session.User.ID], session.ID)
	return cloneChat(stored), nil
}

func (a *AIChatStorage) GetChatSession(_ context.Context, chatID string) (model.ChatSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chat, ok := a.chats[chatID]
	if !ok {
		return model.ChatSession{}, model.ErrChatSessionNotFound
	}
	return cloneChat(*chat), nil
}

func (a *AIChatStorage) UpdateChatSession(
	_ context.Context,
	chatID string,
	version int64,
	update model.ChatSessionUpdate,
) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	chat, ok := a.chats[chatID]
	if !ok {
		return model.ChatSession{}, model.ErrChatSessionNotFound
	}
	if chat.Version != version {
		return model.ChatSession{}, model.ErrChatSessionVersionConflict
	}
	chat.Messages = copyMessages(update.Messages)
	chat.UpdatedAt = update.UpdatedAt
	chat.Version++
	return cloneChat(*chat), nil
}

func (a *AIChatStorage) ListUserChatSessions(_ context.Context, userID string) ([]model.ChatSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chats := make([]model.ChatSession, 0, len(a.userChats[userID]))
	for _, chatID := range a.userChats[userID] {
		if chat, ok := a.chats[chatID]; ok {
			chats = append(chats, cloneChat(*chat))
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func cloneChat(chat model.ChatSession) model.ChatSession {
	chat.Messages = copyMessages(chat.Messages)
	return chat
}

func copyMessages(messages []model.Message) []model.Message {
	copied := make([]model.Message, len(messages))
	copy(copied, messages)
	return copied
}
