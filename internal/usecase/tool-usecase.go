package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/sourcegraph/conc"
)

type ToolSessionStorage interface {
	CreateToolSession(ctx context.Context, session model.ToolSession) (model.ToolSession, error)
	ListUserToolSessions(ctx context.Context, userID string) ([]model.ToolSession, error)
}

type SubmitToolRequest struct {
	AuthUID  string          `json:"-"`
	User     *model.User     `json:"user"`
	ToolData *model.ToolData `json:"tool_data"`
}

type ToolUsecaseDeps struct {
	ToolSessionStorage ToolSessionStorage
	Communicator       Communicator
	Logger             *slog.Logger
}

type ToolUsecase struct {
	ToolUsecaseDeps
	now     func() time.Time
	pending *conc.WaitGroup
}

func NewToolUsecase(deps ToolUsecaseDeps) *ToolUsecase {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ToolUsecase{
		ToolUsecaseDeps: deps,
		now:             defaultClock,
		pending:         conc.NewWaitGroup(),
	}
}

func (t *ToolUsecase) WithClock(now func() time.Time) *ToolUsecase {
	t.now = now
	return t
}

// SubmitTool sends the tool inputs to the AI backend and returns its data
// unchanged. The tool session record is saved in the background; a failed
// save is logged and does not fail the call.
func (t *ToolUsecase) SubmitTool(ctx context.Context, req SubmitToolRequest) (Response, error) {
	if req.User != nil && (req.AuthUID == "" || req.AuthUID != req.User.ID) {
		return Response{}, model.NewAuthorizationError(MessageUserMismatch)
	}
	if req.User == nil || req.ToolData == nil || req.ToolData.ToolID == "" {
		return Response{}, model.NewValidationError(MessageMissingRequiredFields)
	}

	reply, err := t.Communicator.Communicate(
		ctx, model.MarvelRequest{
			User:     *req.User,
			Type:     model.BotTypeTool,
			ToolData: req.ToolData,
		},
	)
	if err != nil {
		t.Logger.ErrorContext(ctx, "failed to submit tool", "tool_id", req.ToolData.ToolID, "error", err)
		return Response{}, model.AsError(err)
	}

	session := model.ToolSession{
		UserID:    req.User.ID,
		ToolID:    req.ToolData.ToolID,
		Response:  reply.Data,
		CreatedAt: t.now(),
	}
	if topic, ok := req.ToolData.Topic(); ok {
		session.Topic = &topic
	}
	saveCtx := context.WithoutCancel(ctx)
	t.pending.Go(
		func() {
			if _, err := t.ToolSessionStorage.CreateToolSession(saveCtx, session); err != nil {
				t.Logger.WarnContext(
					saveCtx, "failed to save tool session",
					"user_id", session.UserID, "tool_id", session.ToolID, "error", err,
				)
			}
		},
	)

	return Response{Status: StatusSuccess, Data: reply.Data}, nil
}

// ListUserToolSessions returns the caller's tool history, newest first.
func (t *ToolUsecase) ListUserToolSessions(ctx context.Context, authUID string) (Response, error) {
	if authUID == "" {
		return Response{}, model.NewAuthorizationError(MessageUnauthenticated)
	}
	sessions, err := t.ToolSessionStorage.ListUserToolSessions(ctx, authUID)
	if err != nil {
		t.Logger.ErrorContext(ctx, "failed to list tool sessions", "user_id", authUID, "error", err)
		return Response{}, model.AsError(fmt.Errorf("failed to list tool sessions: %w", err))
	}
	return Response{Status: StatusSuccess, Data: sessions}, nil
}

// Wait blocks until every background tool session save has finished.
func (t *ToolUsecase) Wait() {
	t.pending.Wait()
}
