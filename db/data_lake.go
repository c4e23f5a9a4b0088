package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticketmarket/entity"
)

// DataLake keeps every public event as it was published.
type DataLake struct {
	db *sqlx.DB
}

func NewDataLake(db *sqlx.DB) DataLake {
	if db == nil {
		panic("db is nil")
	}

	return DataLake{db: db}
}

func (s DataLake) StoreEvent(ctx context.Context, event entity.DataLakeEvent) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO
			events (event_id, published_at, event_name, event_payload)
		VALUES
			(:event_id, :published_at, :event_name, :event_payload)
		ON CONFLICT (event_id) DO NOTHING
	`, event)
	if err != nil {
		return storeError(fmt.Errorf("could not store %s event in data lake: %w", event.ID, err))
	}

	return nil
}

func (s DataLake) GetEvents(ctx context.Context, eventName string) ([]entity.DataLakeEvent, error) {
	var events []entity.DataLakeEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events
		WHERE ($1 = '' OR event_name = $1)
		ORDER BY published_at ASC
	`, eventName)
	if err != nil {
		return nil, storeError(fmt.Errorf("could not get events from data lake: %w", err))
	}

	return events, nil
}
