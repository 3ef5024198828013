package model

import (
	"encoding/json"
	"time"
)

const (
	OutboxStatusUnsent     = "unsent"
	OutboxStatusProcessing = "processing"
	OutboxStatusSent       = "sent"
)

// OutboxEvent is one row of the transactional outbox. Rows are appended by
// the order engine and the deposit reconciler and drained to Kafka by the
// event publisher.
type OutboxEvent struct {
	EventID   string          `db:"event_id"`
	EventType string          `db:"event_type"`
	Status    string          `db:"status"`
	WalletID  string          `db:"wallet_id"`
	EventBlob json.RawMessage `db:"event_blob"`
	CreatedAt time.Time       `db:"created_at"`
}
