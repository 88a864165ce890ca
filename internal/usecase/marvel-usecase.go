package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
)

const (
	HeaderAPIKey = "API-Key"

	maxErrorBodySize = 1 << 20
)

var (
	ErrUnsupportedBotType = errors.New("unsupported bot type")
	ErrMarvelRequest      = errors.New("marvel ai request failed")
)

var botTypeRoutes = map[model.BotType]string{
	model.BotTypeChat: "chat",
	model.BotTypeTool: "submit-tool",
}

// Communicator sends a conversation or a tool request to an AI backend.
type Communicator interface {
	Communicate(ctx context.Context, req model.MarvelRequest) (model.MarvelReply, error)
}

type marvelPayload struct {
	User     model.User      `json:"user"`
	Type     model.BotType   `json:"type"`
	Messages []model.Message `json:"messages,omitempty"`
	ToolData *model.ToolData `json:"tool_data,omitempty"`
}

type marvelErrorBody struct {
	Message string `json:"message"`
}

type MarvelUsecase struct {
	cfg    config.Marvel
	client *http.Client
	logger *slog.Logger
}

func NewMarvelUsecase(cfg config.Marvel, logger *slog.Logger) *MarvelUsecase {
	return &MarvelUsecase{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// WithHTTPClient replaces the client used to reach the gateway.
func (m *MarvelUsecase) WithHTTPClient(client *http.Client) *MarvelUsecase {
	m.client = client
	return m
}

func (m *MarvelUsecase) Communicate(ctx context.Context, req model.MarvelRequest) (model.MarvelReply, error) {
	route, ok := botTypeRoutes[req.Type]
	if !ok {
		return model.MarvelReply{}, model.NewValidationError(
			fmt.Sprintf("%s: %q", ErrUnsupportedBotType, req.Type),
		)
	}
	endpoint, err := url.JoinPath(m.cfg.Endpoint, route)
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError("invalid marvel ai endpoint", err)
	}

	payload := marvelPayload{
		User: req.User,
		Type: req.Type,
	}
	switch req.Type.PayloadShape() {
	case model.PayloadShapeToolData:
		payload.ToolData = req.ToolData
	default:
		payload.Messages = req.Messages
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError("failed to marshal marvel ai payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError("failed to create marvel ai request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderAPIKey, m.cfg.APIKey)

	m.logger.DebugContext(
		ctx, "sending marvel ai request",
		"endpoint", endpoint, "type", req.Type, "user_id", req.User.ID, "messages", len(req.Messages),
	)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError(err.Error(), fmt.Errorf("%w: %w", ErrMarvelRequest, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := errorMessageFromBody(resp)
		m.logger.ErrorContext(ctx, "marvel ai request failed", "status", resp.StatusCode, "message", msg)
		return model.MarvelReply{}, model.NewInternalError(
			msg, fmt.Errorf("%w: status %d", ErrMarvelRequest, resp.StatusCode),
		)
	}

	var reply model.MarvelReply
	if err = json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return model.MarvelReply{}, model.NewInternalError("failed to decode marvel ai response", err)
	}
	m.logger.DebugContext(ctx, "marvel ai response received", "type", req.Type, "bytes", len(reply.Data))
	return reply, nil
}

// errorMessageFromBody extracts {"message": "..."} from a failed response and
// falls back to a generic message when the body is absent or malformed.
func errorMessageFromBody(resp *http.Response) string {
	fallback := fmt.Sprintf("%s with status %d", ErrMarvelRequest, resp.StatusCode)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return fallback
	}
	var body marvelErrorBody
	if err = json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return fallback
	}
	return body.Message
}
