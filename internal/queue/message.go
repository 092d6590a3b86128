package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageVersion is the current wire version of Message.
const MessageVersion = 1

// ErrUnsupportedVersion is returned for payloads written by a newer producer.
var ErrUnsupportedVersion = errors.New("unsupported message version")

// Message is the job payload that asks a worker to process one document.
type Message struct {
	DocumentID string `json:"documentId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
	// Force re-runs a document that already reached a terminal status.
	Force bool `json:"force,omitempty"`
}

// NewMessage builds a Message stamped with the current time.
func NewMessage(documentID, requestID string) Message {
	return Message{
		DocumentID: documentID,
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. A missing version is
// read as the first wire version.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}
	return msg, nil
}
