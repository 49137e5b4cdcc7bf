package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the status of an event in the outbox pattern.
type EventStatus string

const (
	// EventStatusPending indicates the event has been created but not yet processed
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event has been successfully published
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates the event publishing has failed
	EventStatusFailed EventStatus = "failed"
)

// Event types recorded for product mutations.
const (
	EventProductCreated        = "product.created"
	EventProductUpdated        = "product.updated"
	EventProductDeleted        = "product.deleted"
	EventProductDeletedByStock = "product.deleted_by_stock"
)

// Event represents an outbox row describing a product mutation.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}

// NewEvent builds a pending event with eventData marshaled as JSON.
func NewEvent(eventType string, eventData any) (*Event, error) {
	data, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{
		EventType: eventType,
		EventData: data,
		Status:    EventStatusPending,
	}, nil
}
