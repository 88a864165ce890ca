package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarvelRequest is what the service hands to an AI gateway.
type MarvelRequest struct {
	User     User
	Type     BotType
	Messages []Message
	ToolData *ToolData
}

// MarvelReply is the decoded success body of the gateway: {"data": ...}.
type MarvelReply struct {
	Data json.RawMessage `json:"data"`
}

// ReplyMessages normalizes the reply data into a message list. A single
// object becomes a one-element list; absent data yields no messages.
func (r MarvelReply) ReplyMessages() ([]Message, error) {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var messages []Message
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reply messages: %w", err)
		}
		return messages, nil
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reply message: %w", err)
	}
	return []Message{message}, nil
}
