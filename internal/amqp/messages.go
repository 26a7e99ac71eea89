package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionMaterialized = "materialized"
)

// TransactionEvent is a lightweight change notification. It carries only
// identifiers; consumers fetch the full transaction from the store.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Action        string    `json:"action"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(action, userID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		EventID:       uuid.NewString(),
		Action:        action,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
