package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/iyhunko/inventory-service/internal/metrics"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/iyhunko/inventory-service/internal/sqs"
)

// MessagePublisher publishes product messages to a queue.
type MessagePublisher interface {
	PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error
}

// OutboxWorker polls the events table and processes pending events
type OutboxWorker struct {
	eventRepo repository.EventRepository
	publisher MessagePublisher
	interval  time.Duration
	batchSize int
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewOutboxWorker creates a new OutboxWorker
func NewOutboxWorker(eventRepo repository.EventRepository, publisher MessagePublisher, interval time.Duration, batchSize int) *OutboxWorker {
	return &OutboxWorker{
		eventRepo: eventRepo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		stopChan:  make(chan struct{}),
	}
}

// Start begins processing events from the outbox
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", slog.Duration("interval", w.interval), slog.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.processEvents(ctx)
		}
	}
}

// Stop stops the outbox worker. It is safe to call more than once.
func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
}

// processEvents retrieves and processes pending events
func (w *OutboxWorker) processEvents(ctx context.Context) {
	events, err := w.eventRepo.ListPending(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to retrieve pending events", slog.Any("err", err))
		return
	}

	if len(events) == 0 {
		return
	}

	slog.Info("Processing pending events", slog.Int("count", len(events)))

	for _, event := range events {
		status := model.EventStatusProcessed
		if err := w.processEvent(ctx, event); err != nil {
			slog.Error("Failed to process event",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.EventType),
				slog.Any("err", err))
			status = model.EventStatusFailed
		}

		if err := w.eventRepo.UpdateStatus(ctx, event.ID, status); err != nil {
			slog.Error("Failed to update event status",
				slog.String("event_id", event.ID.String()),
				slog.String("status", string(status)),
				slog.Any("err", err))
			continue
		}

		metrics.OutboxEventsPublished.WithLabelValues(string(status)).Inc()
		if status == model.EventStatusProcessed {
			slog.Debug("Event processed successfully",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.EventType))
		}
	}
}

// processEvent publishes a single event to SQS
func (w *OutboxWorker) processEvent(ctx context.Context, event *model.Event) error {
	var productMsg sqs.ProductMessage
	if err := json.Unmarshal(event.EventData, &productMsg); err != nil {
		return err
	}

	return w.publisher.PublishProductMessage(ctx, productMsg)
}
