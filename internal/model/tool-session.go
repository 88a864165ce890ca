package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ToolID accepts both numeric and string identifiers on the wire.
type ToolID string

func (id *ToolID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal tool id: %w", err)
		}
		*id = ToolID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to unmarshal tool id: %w", err)
	}
	*id = ToolID(n.String())
	return nil
}

type ToolInput struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type ToolData struct {
	ToolID ToolID      `json:"tool_id"`
	Inputs []ToolInput `json:"inputs"`
}

// Topic returns the value of the input named "topic" if it is a string.
func (d ToolData) Topic() (string, bool) {
	for _, input := range d.Inputs {
		if input.Name != "topic" {
			continue
		}
		var topic string
		if err := json.Unmarshal(input.Value, &topic); err != nil {
			return "", false
		}
		return topic, true
	}
	return "", false
}

// ToolSession records a tool response for the user's history.
type ToolSession struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	ToolID    ToolID          `json:"toolId"`
	Topic     *string         `json:"topic"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"createdAt"`
}
