package model

import (
	"errors"
	"time"
)

var (
	ErrChatSessionNotFound        = errors.New("chat session not found")
	ErrChatSessionVersionConflict = errors.New("chat session was modified concurrently")
)

type ChatSession struct {
	ID        string
	User      User
	Type      BotType
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version is bumped by the storage on every write and checked on update.
	Version int64
}

// ChatSessionUpdate carries the mutable part of a chat session.
type ChatSessionUpdate struct {
	Messages  []Message
	UpdatedAt time.Time
}

// ChatSessionView is the client facing form of a chat session.
type ChatSessionView struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Type      BotType   `json:"type"`
	Messages  []Message `json:"messages"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

func (s ChatSession) View() ChatSessionView {
	messages := s.Messages
	if messages == nil {
		messages = make([]Message, 0)
	}
	return ChatSessionView{
		ID:        s.ID,
		User:      s.User,
		Type:      s.Type,
		Messages:  messages,
		CreatedAt: FormatTimestamp(s.CreatedAt),
		UpdatedAt: FormatTimestamp(s.UpdatedAt),
	}
}
