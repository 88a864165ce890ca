package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type MessageRole string

const (
	MessageRoleHuman     = MessageRole("human")
	MessageRoleAssistant = MessageRole("assistant")
	MessageRoleSystem    = MessageRole("system")
)

// TimestampLayout renders timestamps the way clients expect them: ISO-8601,
// millisecond precision, UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	messageFieldRole      = "role"
	messageFieldType      = "type"
	messageFieldPayload   = "payload"
	messageFieldTimestamp = "timestamp"
)

// Message is a single entry of a chat session. Fields the service does not
// know about are kept in Extra and written back unchanged.
type Message struct {
	Role      MessageRole
	Type      string
	Payload   json.RawMessage
	Timestamp time.Time
	Extra     map[string]json.RawMessage
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Stamped returns a copy of the message carrying the given timestamp.
func (m Message) Stamped(at time.Time) Message {
	stamped := m
	stamped.Timestamp = at
	if m.Extra != nil {
		stamped.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			stamped.Extra[k] = v
		}
	}
	return stamped
}

// IsEmpty reports whether the message carries nothing at all.
func (m Message) IsEmpty() bool {
	return m.Role == "" && m.Type == "" && len(m.Payload) == 0 && len(m.Extra) == 0
}

// Text returns the human readable content of the message, looking at
// payload.text first and then at top level text/content fields.
func (m Message) Text() string {
	if len(m.Payload) > 0 {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(m.Payload, &payload); err == nil && payload.Text != "" {
			return payload.Text
		}
	}
	for _, key := range []string{"text", "content"} {
		raw, ok := m.Extra[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return text
		}
	}
	return ""
}

func (m Message) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(m.Extra)+4)
	for k, v := range m.Extra {
		fields[k] = v
	}
	if m.Role != "" {
		raw, err := json.Marshal(m.Role)
		if err != nil {
			return nil, err
		}
		fields[messageFieldRole] = raw
	}
	if m.Type != "" {
		raw, err := json.Marshal(m.Type)
		if err != nil {
			return nil, err
		}
		fields[messageFieldType] = raw
	}
	if len(m.Payload) > 0 {
		fields[messageFieldPayload] = m.Payload
	}
	if !m.Timestamp.IsZero() {
		raw, err := json.Marshal(FormatTimestamp(m.Timestamp))
		if err != nil {
			return nil, err
		}
		fields[messageFieldTimestamp] = raw
	}
	return json.Marshal(fields)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	*m = Message{}
	if raw, ok := fields[messageFieldRole]; ok {
		if err := json.Unmarshal(raw, &m.Role); err != nil {
			return fmt.Errorf("failed to unmarshal message role: %w", err)
		}
		delete(fields, messageFieldRole)
	}
	if raw, ok := fields[messageFieldType]; ok {
		if err := json.Unmarshal(raw, &m.Type); err != nil {
			return fmt.Errorf("failed to unmarshal message type: %w", err)
		}
		delete(fields, messageFieldType)
	}
	if raw, ok := fields[messageFieldPayload]; ok {
		if string(raw) != "null" {
			m.Payload = append(json.RawMessage(nil), raw...)
		}
		delete(fields, messageFieldPayload)
	}
	if raw, ok := fields[messageFieldTimestamp]; ok {
		// Foreign timestamp formats are dropped; appending re-stamps anyway.
		var ts string
		if err := json.Unmarshal(raw, &ts); err == nil {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				m.Timestamp = parsed
			}
		}
		delete(fields, messageFieldTimestamp)
	}
	if len(fields) > 0 {
		m.Extra = fields
	}
	return nil
}
