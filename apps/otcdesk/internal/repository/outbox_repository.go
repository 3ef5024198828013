package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type OutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOutboxRepository(db *sql.DB, logger *zap.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

func (r *OutboxRepository) StoreEvent(eventType, walletID string, payload any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO event_outbox (event_type, status, wallet_id, event_blob)
		VALUES ($1, 'unsent', $2, $3)
	`, eventType, walletID, blob)

	if err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}

	r.logger.Info("Stored event", zap.String("event_type", eventType), zap.String("wallet_id", walletID))
	return nil
}

func (r *OutboxRepository) GetUnsentEventsForProcessing(limit int) ([]model.OutboxEvent, error) {
	// Use a transaction to ensure atomicity
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Will be ignored if tx.Commit() succeeds

	// Select and lock unsent events for processing
	rows, err := tx.Query(`
		SELECT event_id, event_type, status, wallet_id, event_blob, created_at
		FROM event_outbox
		WHERE status = 'unsent'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.OutboxEvent
	for rows.Next() {
		var event model.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.EventType, &event.Status,
			&event.WalletID, &event.EventBlob, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	rows.Close()

	// Mark selected events as 'processing' to prevent other instances from picking them up
	for _, event := range events {
		_, err = tx.Exec(`
			UPDATE event_outbox
			SET status = 'processing'
			WHERE event_id = $1 AND status = 'unsent'
		`, event.EventID)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *OutboxRepository) MarkEventAsSent(eventID string) error {
	_, err := r.db.Exec(`
		UPDATE event_outbox
		SET status = 'sent'
		WHERE event_id = $1
	`, eventID)
	return err
}

func (r *OutboxRepository) MarkEventAsFailed(eventID string) error {
	_, err := r.db.Exec(`
		UPDATE event_outbox
		SET status = 'unsent'
		WHERE event_id = $1 AND status = 'processing'
	`, eventID)
	return err
}
