package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultPollInterval = 10 * time.Second

// JobProcessor processes whatever work is queued when called.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls a JobProcessor once on start and then every poll interval
// until Stop is called or its context ends.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	logger       zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a Worker. A non-positive pollInterval uses 10s.
func NewWorker(processor JobProcessor, pollInterval time.Duration, logger zerolog.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		logger:       logger.With().Str("component", "worker").Logger(),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start blocks running the poll loop. Jobs queued while the server was down
// are picked up immediately rather than after the first interval.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("worker started")

	for {
		w.runOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stop:
			w.logger.Info().Msg("worker stopped: stop signal received")
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.processor.ProcessJobs(ctx); err != nil {
		w.logger.Error().Err(err).Int64("duration_ms", time.Since(start).Milliseconds()).Msg("error processing jobs")
	}
}

// Stop signals the loop to exit and waits for the current batch to finish.
// It is safe to call more than once, and after the context has ended.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
	w.logger.Info().Msg("worker shutdown complete")
}
