package poller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vpbank/apc_pdu/models"
)

// WorkerPool fans poll jobs out to N goroutines and forwards every record
// to a shared output channel.
type WorkerPool struct {
	numWorkers int
	poller     Poller
	output     chan<- models.StatusRecord
	logger     *slog.Logger

	jobs chan PollJob
	wg   sync.WaitGroup
}

// NewWorkerPool creates numWorkers goroutines (4 when <= 0) running poller.
func NewWorkerPool(numWorkers int, poller Poller, output chan<- models.StatusRecord, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		poller:     poller,
		output:     output,
		logger:     logger,
		jobs:       make(chan PollJob, numWorkers*2),
	}
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (w *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}
}

// Submit enqueues job, blocking while the queue is full.
func (w *WorkerPool) Submit(job PollJob) {
	w.jobs <- job
}

// TrySubmit enqueues job without blocking and reports whether it was queued.
func (w *WorkerPool) TrySubmit(job PollJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (w *WorkerPool) Stop() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *WorkerPool) worker(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			records, err := w.poller.Poll(ctx, job)
			if err != nil {
				w.logger.Warn("poll failed",
					"device", job.Device,
					"error", err.Error(),
				)
				continue
			}
			for _, rec := range records {
				select {
				case w.output <- rec:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
