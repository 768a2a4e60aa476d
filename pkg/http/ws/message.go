package ws

import "encoding/json"

// MessageType constants for the question stream protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeHello          = "hello"
	TypeQuestionChange = "question_change"
	TypePong           = "pong"
	TypeError          = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(typ string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: typ}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Payload: raw}, nil
}

type HelloPayload struct {
	ConnectionID string `json:"connection_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
