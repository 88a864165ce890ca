package key_value

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/redis/go-redis/v9"
)

type ToolSessionStorage struct {
	rdb *redis.Client
}

func NewToolSessionStorage(rdb *redis.Client) *ToolSessionStorage {
	return &ToolSessionStorage{
		rdb: rdb,
	}
}

// CreateToolSession stores the session and prepends its id to the user's
// history list so listing returns newest first.
func (t *ToolSessionStorage) CreateToolSession(ctx context.Context, session model.ToolSession) (model.ToolSession, error) {
	session.ID = uuid.New().String()
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return model.ToolSession{}, fmt.Errorf("failed to marshal tool session: %w", err)
	}
	_, err = t.rdb.TxPipelined(
		ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, getToolSessionKey(session.ID), sessionJSON, 0)
			pipe.LPush(ctx, getUserToolSessionsKey(session.UserID), session.ID)
			return nil
		},
	)
	if err != nil {
		return model.ToolSession{}, fmt.Errorf("failed to save tool session %s: %w", session.ID, err)
	}
	return session, nil
}

func (t *ToolSessionStorage) ListUserToolSessions(ctx context.Context, userID string) ([]model.ToolSession, error) {
	ids, err := t.rdb.LRange(ctx, getUserToolSessionsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user tool sessions ids: %w", err)
	}
	sessions := make([]model.ToolSession, 0, len(ids))
	if len(ids) == 0 {
		return sessions, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, getToolSessionKey(id))
	}
	raws, err := t.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tool sessions: %w", err)
	}
	for i, raw := range raws {
		rawStr, ok := raw.(string)
		if !ok {
			continue
		}
		var session model.ToolSession
		if err = json.Unmarshal([]byte(rawStr), &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool session %s: %w", ids[i], err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func getToolSessionKey(id string) string {
	return fmt.Sprintf("tool_session_%s", id)
}

func getUserToolSessionsKey(userID string) string {
	return fmt.Sprintf("user_tool_sessions_%s", userID)
}
