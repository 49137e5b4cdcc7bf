package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
)

const (
	eventColumns = "id, event_type, event_data, status, created_at, processed_at"

	insertEventSQL = "INSERT INTO events (" + eventColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	// created_at alone can tie inside one transaction; id keeps the order stable.
	pendingEventsSQL = "SELECT " + eventColumns + " FROM events WHERE status = $1 ORDER BY created_at, id LIMIT $2"
	markEventSQL     = "UPDATE events SET status = $1, processed_at = CURRENT_TIMESTAMP WHERE id = $2"
)

// EventRepository implements repository.EventRepository on the events outbox table.
type EventRepository struct {
	conn
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{conn: conn{db: db}}
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		event       model.Event
		data        []byte
		status      string
		processedAt sql.NullTime
	)
	if err := row.Scan(&event.ID, &event.EventType, &data, &status, &event.CreatedAt, &processedAt); err != nil {
		return nil, err
	}
	event.EventData = data
	event.Status = model.EventStatus(status)
	if processedAt.Valid {
		event.ProcessedAt = &processedAt.Time
	}
	return &event, nil
}

// Create assigns the event its id and creation time and appends it to the outbox.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	event.InitMeta()

	stmt, err := r.getExecutor().PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
		event.ID, event.EventType, []byte(event.EventData), string(event.Status), event.CreatedAt, event.ProcessedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert %s event: %w", event.EventType, err)
	}
	return event, nil
}

// ListPending returns up to limit unpublished events in the order they were recorded.
func (r *EventRepository) ListPending(ctx context.Context, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, pendingEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare pending events query: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, string(model.EventStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending events: %w", err)
	}
	return events, nil
}

// UpdateStatus moves an event out of pending and stamps processed_at.
func (r *EventRepository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	stmt, err := r.getExecutor().PrepareContext(ctx, markEventSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare event status update: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, string(status), eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event %s as %s: %w", eventID, status, err)
	}

	affected, err := result.RowsAffected()
	switch {
	case err != nil:
		return fmt.Errorf("failed to get rows affected: %w", err)
	case affected == 0:
		return fmt.Errorf("event %s: %w", eventID, repository.ErrNotFound)
	}
	return nil
}
