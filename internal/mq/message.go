package mq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Well-known message headers
const (
	HeaderDeploymentID = "deployment_id"
	HeaderEventType    = "event_type"
	HeaderAttempt      = "attempt"
)

// Message is one queued event with a JSON payload
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   json.RawMessage   `json:"payload"`
	Headers   map[string]string `json:"headers,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewMessage marshals payload into a new message on topic
func NewMessage(topic string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   data,
		Headers:   make(map[string]string),
		Timestamp: time.Now(),
	}, nil
}

// Unmarshal decodes the payload into v
func (m *Message) Unmarshal(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// WithHeader sets a header and returns the message
func (m *Message) WithHeader(key, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
	return m
}

// GetHeader returns a header value
func (m *Message) GetHeader(key string) (string, bool) {
	val, ok := m.Headers[key]
	return val, ok
}
