package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/sashabaranov/go-openai"
)

const replyTypeText = "text"

// OpenAIUsecase answers chat conversations through an OpenAI compatible API
// instead of the Marvel AI gateway. Tool requests are not supported.
type OpenAIUsecase struct {
	cfg    config.OpenAI
	client *openai.Client
	logger *slog.Logger
}

func NewOpenAIUsecase(cfg config.OpenAI, logger *slog.Logger) *OpenAIUsecase {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAIUsecase{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

func (o *OpenAIUsecase) Communicate(ctx context.Context, req model.MarvelRequest) (model.MarvelReply, error) {
	if req.Type.PayloadShape() != model.PayloadShapeMessages {
		return model.MarvelReply{}, model.NewValidationError("tool requests are not supported by the openai provider")
	}

	messageHistory := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, message := range req.Messages {
		text := message.Text()
		if text == "" {
			continue
		}
		messageHistory = append(
			messageHistory, openai.ChatCompletionMessage{
				Role:    parseMessageRoleToOpenAIRole(message.Role),
				Content: text,
			},
		)
	}
	if len(messageHistory) == 0 {
		return model.MarvelReply{}, model.NewValidationError("conversation has no text messages")
	}

	resp, err := o.client.CreateChatCompletion(
		ctx, openai.ChatCompletionRequest{
			Model:       o.cfg.OpenAIModel,
			Temperature: o.cfg.ModelTemperature,
			N:           1,
			Messages:    messageHistory,
			User:        req.User.ID,
		},
	)
	if err != nil {
		o.logger.ErrorContext(ctx, "openai request failed", "error", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return model.MarvelReply{}, model.NewInternalError(apiErr.Message, err)
		}
		return model.MarvelReply{}, model.NewInternalError(err.Error(), err)
	}
	if len(resp.Choices) == 0 {
		return model.MarvelReply{}, model.NewInternalError("openai returned no choices", nil)
	}

	payload, err := json.Marshal(map[string]string{"text": resp.Choices[0].Message.Content})
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError("failed to marshal openai reply", err)
	}
	data, err := json.Marshal(
		model.Message{
			Role:    model.MessageRoleAssistant,
			Type:    replyTypeText,
			Payload: payload,
		},
	)
	if err != nil {
		return model.MarvelReply{}, model.NewInternalError("failed to marshal openai reply", err)
	}
	return model.MarvelReply{Data: data}, nil
}

func parseMessageRoleToOpenAIRole(role model.MessageRole) string {
	switch role {
	case model.MessageRoleAssistant:
		return openai.ChatMessageRoleAssistant
	case model.MessageRoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
