package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger operations carried by LedgerChangedMessage.
const (
	OpBudget = "budget"
	OpAdd    = "add"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// LedgerChangedMessage announces that a ledger was persisted. It carries
// only a pointer to the ledger; consumers reload it from its store.
type LedgerChangedMessage struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`
	Serial    int       `json:"serial,omitempty"`
	File      string    `json:"file"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh ID.
func NewLedgerChangedMessage(op string, serial int, file, title string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.New(),
		Operation: op,
		Serial:    serial,
		File:      file,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes. A message
// without an ID or title cannot be processed.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, fmt.Errorf("message has no id")
	}
	if msg.Title == "" {
		return nil, fmt.Errorf("message %s has no title", msg.ID)
	}
	return &msg, nil
}
