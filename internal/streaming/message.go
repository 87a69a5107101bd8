package streaming

import (
	"encoding/json"
	"errors"

	"msigwallet/internal/domain"
)

type MessageType string

const (
	MessageTypeActivity MessageType = "activity"
)

// Message is the envelope published on the activity topic.
type Message struct {
	Type     MessageType      `json:"type"`
	ChainID  uint64           `json:"chain_id"`
	TraceID  string           `json:"trace_id,omitempty"`
	Activity *domain.Activity `json:"activity,omitempty"`
}

func Encode(msg Message) ([]byte, error) {
	if err := validate(msg); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func Decode(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if err := validate(msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func validate(msg Message) error {
	if msg.Type == "" {
		return errors.New("message type is missing")
	}
	if msg.ChainID == 0 {
		return errors.New("chain_id is missing")
	}
	if msg.Type == MessageTypeActivity && (msg.Activity == nil || msg.Activity.ID == "") {
		return errors.New("activity payload is missing")
	}
	return nil
}
