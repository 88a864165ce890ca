package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
				if got != nil {
					require.NoError(t, json.NewDecoder(r.Body).Decode(got))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(body))
			},
		),
	)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(baseURL string) *OpenAIUsecase {
	return NewOpenAIUsecase(
		config.OpenAI{
			OpenAIAPIKey:     "sk-test",
			OpenAIBaseURL:    baseURL + "/v1",
			OpenAIModel:      openai.GPT4oMini,
			ModelTemperature: 1,
		},
		newTestLogger(),
	)
}

func TestOpenAIUsecase_Communicate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newOpenAIServer(
		t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello, Ada"},"finish_reason":"stop"}]}`,
		&got,
	)

	reply, err := newTestOpenAI(srv.URL).Communicate(
		context.Background(), model.MarvelRequest{
			User: model.User{ID: "u1"},
			Type: model.BotTypeChat,
			Messages: []model.Message{
				*textMessage(model.MessageRoleSystem, "be kind"),
				*textMessage(model.MessageRoleHuman, "hi"),
				{Role: model.MessageRoleHuman, Type: "image"},
				{Role: model.MessageRoleAssistant, Payload: json.RawMessage(`{"text":"earlier answer"}`)},
			},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, openai.GPT4oMini, got.Model)
	assert.Equal(t, "u1", got.User)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[2].Role)
	assert.Equal(t, "earlier answer", got.Messages[2].Content)

	messages, err := reply.ReplyMessages()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.MessageRoleAssistant, messages[0].Role)
	assert.Equal(t, "Hello, Ada", messages[0].Text())
}

func TestOpenAIUsecase_APIError(t *testing.T) {
	srv := newOpenAIServer(
		t, http.StatusInternalServerError,
		`{"error":{"message":"model overloaded","type":"server_error"}}`,
		nil,
	)

	_, err := newTestOpenAI(srv.URL).Communicate(
		context.Background(), model.MarvelRequest{
			Type:     model.BotTypeChat,
			Messages: []model.Message{*textMessage(model.MessageRoleHuman, "hi")},
		},
	)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrorKindInternal))
	assert.Equal(t, "model overloaded", err.Error())
}

func TestOpenAIUsecase_Rejected(t *testing.T) {
	uc := newTestOpenAI("http://127.0.0.1:1")

	_, err := uc.Communicate(
		context.Background(), model.MarvelRequest{Type: model.BotTypeTool, ToolData: &model.ToolData{ToolID: "0"}},
	)
	assert.True(t, model.IsKind(err, model.ErrorKindValidation))

	_, err = uc.Communicate(
		context.Background(), model.MarvelRequest{
			Type:     model.BotTypeChat,
			Messages: []model.Message{{Role: model.MessageRoleHuman, Type: "image"}},
		},
	)
	assert.True(t, model.IsKind(err, model.ErrorKindValidation))
}
