package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
)

const (
	DefaultRetentionThreshold = 100
	DefaultRetentionKeep      = 65

	MessageMissingRequiredFields = "Missing required fields"
	MessageUserMismatch          = "User ID does not match the authenticated user"
	MessageUnauthenticated       = "The request is not authenticated"
	MessageChatSessionNotFound   = "Chat session not found"
	MessageNotChatSessionOwner   = "Chat session belongs to another user"
)

type ChatSessionStorage interface {
	CreateChatSession(ctx context.Context, session model.ChatSession) (model.ChatSession, error)
	GetChatSession(ctx context.Context, chatID string) (model.ChatSession, error)
	UpdateChatSession(
		ctx context.Context, chatID string, version int64, update model.ChatSessionUpdate,
	) (model.ChatSession, error)
	ListUserChatSessions(ctx context.Context, userID string) ([]model.ChatSession, error)
}

type CreateChatSessionRequest struct {
	// AuthUID is the identity of the caller, set by the transport.
	AuthUID       string         `json:"-"`
	User          *model.User    `json:"user"`
	Message       *model.Message `json:"message"`
	Type          model.BotType  `json:"type"`
	SystemMessage *model.Message `json:"systemMessage"`
}

type PostMessageRequest struct {
	ID      string         `json:"id"`
	Message *model.Message `json:"message"`
}

type ChatSessionUsecaseDeps struct {
	ChatSessionStorage ChatSessionStorage
	Communicator       Communicator
	Logger             *slog.Logger
}

type ChatSessionUsecase struct {
	ChatSessionUsecaseDeps
	cfg config.Chat
	now func() time.Time
}

func NewChatSessionUsecase(deps ChatSessionUsecaseDeps, cfg config.Chat) *ChatSessionUsecase {
	if cfg.RetentionThreshold <= 0 {
		cfg.RetentionThreshold = DefaultRetentionThreshold
	}
	if cfg.RetentionKeep <= 0 || cfg.RetentionKeep > cfg.RetentionThreshold {
		cfg.RetentionKeep = min(DefaultRetentionKeep, cfg.RetentionThreshold)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ChatSessionUsecase{
		ChatSessionUsecaseDeps: deps,
		cfg:                    cfg,
		now:                    defaultClock,
	}
}

// WithClock replaces the time source used for message and session timestamps.
func (c *ChatSessionUsecase) WithClock(now func() time.Time) *ChatSessionUsecase {
	c.now = now
	return c
}

// CreateChatSession persists a new session holding the optional system message
// and the first message, asks the AI backend for a reply and appends it.
func (c *ChatSessionUsecase) CreateChatSession(ctx context.Context, req CreateChatSessionRequest) (Response, error) {
	resp, err := c.createChatSession(ctx, req)
	if err != nil {
		c.Logger.ErrorContext(ctx, "failed to create chat session", "type", req.Type, "error", err)
		return Response{}, model.AsError(err)
	}
	return resp, nil
}

func (c *ChatSessionUsecase) createChatSession(ctx context.Context, req CreateChatSessionRequest) (Response, error) {
	if req.User != nil && (req.AuthUID == "" || req.AuthUID != req.User.ID) {
		return Response{}, model.NewAuthorizationError(MessageUserMismatch)
	}
	if req.User == nil || req.Message == nil || req.Message.IsEmpty() || req.Type == "" {
		return Response{}, model.NewValidationError(MessageMissingRequiredFields)
	}
	if !req.Type.IsKnown() {
		return Response{}, model.NewValidationError(fmt.Sprintf("%s: %q", ErrUnsupportedBotType, req.Type))
	}

	now := c.now()
	initialMessages := make([]model.Message, 0, 2)
	if req.SystemMessage != nil {
		initialMessages = append(initialMessages, req.SystemMessage.Stamped(now))
	}
	initialMessages = append(initialMessages, req.Message.Stamped(now))

	created, err := c.ChatSessionStorage.CreateChatSession(
		ctx, model.ChatSession{
			User:      *req.User,
			Type:      req.Type,
			Messages:  initialMessages,
			CreatedAt: now,
			UpdatedAt: now,
		},
	)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat session: %w", err)
	}
	logger := c.Logger.With("session_id", created.ID, "user_id", created.User.ID, "type", created.Type)
	logger.DebugContext(ctx, "chat session created", "messages", len(initialMessages))

	reply, err := c.Communicator.Communicate(
		ctx, model.MarvelRequest{
			User:     created.User,
			Type:     created.Type,
			Messages: initialMessages,
		},
	)
	if err != nil {
		return Response{}, err
	}

	// The document is read again so the reply lands on what is stored now.
	stored, err := c.ChatSessionStorage.GetChatSession(ctx, created.ID)
	if err != nil {
		return Response{}, fmt.Errorf("failed to reload chat session %s: %w", created.ID, err)
	}
	updated, err := c.appendReply(ctx, stored, reply)
	if err != nil {
		return Response{}, err
	}

	logger.InfoContext(ctx, "chat session started", "messages", len(updated.Messages))
	return Response{
		Status: StatusCreated,
		Data:   updated.View(),
	}, nil
}

// PostMessage appends a message to an existing session. The message is stored
// before the AI backend is called, so a failed call keeps it.
func (c *ChatSessionUsecase) PostMessage(ctx context.Context, req PostMessageRequest) (Response, error) {
	resp, err := c.postMessage(ctx, req)
	if err != nil {
		c.Logger.ErrorContext(ctx, "failed to post message", "session_id", req.ID, "error", err)
		return Response{}, model.AsError(err)
	}
	return resp, nil
}

func (c *ChatSessionUsecase) postMessage(ctx context.Context, req PostMessageRequest) (Response, error) {
	if req.ID == "" || req.Message == nil || req.Message.IsEmpty() {
		return Response{}, model.NewValidationError(MessageMissingRequiredFields)
	}

	session, err := c.getChatSession(ctx, req.ID)
	if err != nil {
		return Response{}, err
	}
	logger := c.Logger.With("session_id", session.ID, "user_id", session.User.ID, "type", session.Type)

	messages := c.retain(session.Messages)
	if len(messages) < len(session.Messages) {
		logger.DebugContext(ctx, "chat history truncated", "before", len(session.Messages), "after", len(messages))
	}
	messages = append(messages, req.Message.Stamped(c.now()))

	pending, err := c.ChatSessionStorage.UpdateChatSession(
		ctx, session.ID, session.Version, model.ChatSessionUpdate{
			Messages:  messages,
			UpdatedAt: c.touch(session.UpdatedAt),
		},
	)
	if err != nil {
		return Response{}, fmt.Errorf("failed to save message: %w", err)
	}

	reply, err := c.Communicator.Communicate(
		ctx, model.MarvelRequest{
			User:     pending.User,
			Type:     pending.Type,
			Messages: pending.Messages,
		},
	)
	if err != nil {
		return Response{}, err
	}

	updated, err := c.appendReply(ctx, pending, reply)
	if err != nil {
		return Response{}, err
	}
	logger.DebugContext(ctx, "chat session updated", "messages", len(updated.Messages))
	return Response{Status: StatusSuccess}, nil
}

// GetChatSession returns the caller's session.
func (c *ChatSessionUsecase) GetChatSession(ctx context.Context, authUID, chatID string) (Response, error) {
	if chatID == "" {
		return Response{}, model.NewValidationError(MessageMissingRequiredFields)
	}
	if authUID == "" {
		return Response{}, model.NewAuthorizationError(MessageUnauthenticated)
	}
	session, err := c.getChatSession(ctx, chatID)
	if err != nil {
		return Response{}, model.AsError(err)
	}
	if session.User.ID != authUID {
		return Response{}, model.NewAuthorizationError(MessageNotChatSessionOwner)
	}
	return Response{Status: StatusSuccess, Data: session.View()}, nil
}

// ListUserChatSessions returns the caller's sessions, most recently updated first.
func (c *ChatSessionUsecase) ListUserChatSessions(ctx context.Context, authUID string) (Response, error) {
	if authUID == "" {
		return Response{}, model.NewAuthorizationError(MessageUnauthenticated)
	}
	sessions, err := c.ChatSessionStorage.ListUserChatSessions(ctx, authUID)
	if err != nil {
		c.Logger.ErrorContext(ctx, "failed to list chat sessions", "user_id", authUID, "error", err)
		return Response{}, model.AsError(fmt.Errorf("failed to list chat sessions: %w", err))
	}
	views := make([]model.ChatSessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, session.View())
	}
	return Response{Status: StatusSuccess, Data: views}, nil
}

func (c *ChatSessionUsecase) getChatSession(ctx context.Context, chatID string) (model.ChatSession, error) {
	session, err := c.ChatSessionStorage.GetChatSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, model.ErrChatSessionNotFound) {
			c.Logger.InfoContext(ctx, "chat session not found", "session_id", chatID)
			return model.ChatSession{}, model.NewNotFoundError(MessageChatSessionNotFound)
		}
		return model.ChatSession{}, fmt.Errorf("failed to get chat session %s: %w", chatID, err)
	}
	return session, nil
}

// appendReply stamps every reply message and writes them after the stored
// messages of session.
func (c *ChatSessionUsecase) appendReply(
	ctx context.Context,
	session model.ChatSession,
	reply model.MarvelReply,
) (model.ChatSession, error) {
	replyMessages, err := reply.ReplyMessages()
	if err != nil {
		return model.ChatSession{}, err
	}
	messages := make([]model.Message, 0, len(session.Messages)+len(replyMessages))
	messages = append(messages, session.Messages...)
	for _, message := range replyMessages {
		messages = append(messages, message.Stamped(c.now()))
	}

	updated, err := c.ChatSessionStorage.UpdateChatSession(
		ctx, session.ID, session.Version, model.ChatSessionUpdate{
			Messages:  messages,
			UpdatedAt: c.touch(session.UpdatedAt),
		},
	)
	if err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to save reply: %w", err)
	}
	return updated, nil
}

// retain applies the retention rule: past the threshold only the most recent
// messages are kept. The result always has room for one more message.
func (c *ChatSessionUsecase) retain(messages []model.Message) []model.Message {
	if len(messages) > c.cfg.RetentionThreshold {
		messages = messages[len(messages)-c.cfg.RetentionKeep:]
	}
	retained := make([]model.Message, len(messages), len(messages)+1)
	copy(retained, messages)
	return retained
}

// touch returns the current time, moved past prev when the clock has not
// advanced, so updatedAt strictly increases.
func (c *ChatSessionUsecase) touch(prev time.Time) time.Time {
	now := c.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
