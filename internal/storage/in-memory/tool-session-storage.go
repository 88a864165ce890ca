package in_memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
)

type ToolSessionStorage struct {
	mu       sync.RWMutex
	sessions []model.ToolSession
}

func NewToolSessionStorage() *ToolSessionStorage {
	return &ToolSessionStorage{}
}

func (t *ToolSessionStorage) CreateToolSession(_ context.Context, session model.ToolSession) (model.ToolSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session.ID = uuid.New().String()
	t.sessions = append(t.sessions, session)
	return session, nil
}

// ListUserToolSessions returns the user's tool sessions, newest first.
func (t *ToolSessionStorage) ListUserToolSessions(_ context.Context, userID string) ([]model.ToolSession, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sessions := make([]model.ToolSession, 0)
	for i := len(t.sessions) - 1; i >= 0; i-- {
		if t.sessions[i].UserID == userID {
			sessions = append(sessions, t.sessions[i])
		}
	}
	return sessions, nil
}
