package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker saves events in the background so request handlers never wait on
// the event store.
type Worker struct {
	eventCh     chan Event
	logger      EventLogger
	saveTimeout time.Duration
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewWorker(logger EventLogger, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh:     make(chan Event, bufferSize),
		logger:      logger,
		saveTimeout: 5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for len(w.eventCh) > 0 {
					w.save(context.Background(), <-w.eventCh)
				}
				return
			case event := <-w.eventCh:
				w.save(w.ctx, event)
			}
		}
	})
}

func (w *Worker) save(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()
	if err := w.logger.Save(ctx, event); err != nil {
		slog.Error("failed to save event", "error", err, "event_type", event.Type, "event_id", event.ID)
	}
}

func (w *Worker) Log(event Event) {
	select {
	case w.eventCh <- event:
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
	}
}

func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
	close(w.eventCh)
}
