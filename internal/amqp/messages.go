package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

// Routing keys of the ledger events.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEvent announces a ledger mutation. Deleted events carry only
// the identifiers.
type TransactionEvent struct {
	Event         string    `json:"event"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Type          string    `json:"type,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCreated builds the event for a stored transaction.
func NewTransactionCreated(tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Event:         EventTransactionCreated,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Type:          tx.Type.String(),
		AmountCents:   tx.Amount.Cents,
		Category:      tx.Category,
		Timestamp:     time.Now().UTC(),
	}
}

func NewTransactionDeleted(userID, id int64) *TransactionEvent {
	return &TransactionEvent{
		Event:         EventTransactionDeleted,
		TransactionID: id,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON creates a message from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
