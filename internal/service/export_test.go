package service

import "context"

// ProcessEvents runs a single polling round of the worker.
func (w *OutboxWorker) ProcessEvents(ctx context.Context) {
	w.processEvents(ctx)
}
