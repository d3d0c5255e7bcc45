package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// LedgerEventMessage tells the summary worker that a day's ledger changed.
// It carries only the coordinates of the change; the worker recomputes the
// affected rollup from the database.
type LedgerEventMessage struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Op        string    `json:"op"`
	Day       string    `json:"day"` // 2006-01-02
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(id int64, owner, op string, day time.Time) *LedgerEventMessage {
	return &LedgerEventMessage{
		ID:        id,
		Owner:     owner,
		Op:        op,
		Day:       day.Format("2006-01-02"),
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Owner == "" {
		return nil, fmt.Errorf("ledger event without owner")
	}
	if _, err := time.Parse("2006-01-02", msg.Day); err != nil {
		return nil, fmt.Errorf("ledger event day %q: %w", msg.Day, err)
	}
	return &msg, nil
}
