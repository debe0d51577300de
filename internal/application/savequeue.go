package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"yololabel/internal/domain"
)

// LabelWriter persists one label file
type LabelWriter func(labelPath string, anns []domain.Annotation) error

type saveJob struct {
	path string
	anns []domain.Annotation
	done chan error // set for flush markers only
}

// SaveQueue serializes label-file writes on a single goroutine. Jobs run in
// enqueue order, so two saves of the same file can never be reordered.
// A failed write is retried once and then reported through Flush and the
// error callback.
type SaveQueue struct {
	write   LabelWriter
	logger  *slog.Logger
	onError func(path string, err error)

	mu      sync.Mutex
	pending []saveJob
	wake    chan struct{}
	closed  bool
	failed  []error
	stopped chan struct{}
}

// NewSaveQueue starts the writer goroutine. onError may be nil.
func NewSaveQueue(write LabelWriter, logger *slog.Logger, onError func(path string, err error)) *SaveQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &SaveQueue{
		write:   write,
		logger:  logger,
		onError: onError,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue schedules a write of anns to labelPath. The slice is owned by the
// queue from here on; callers pass a snapshot. It never blocks on I/O.
func (q *SaveQueue) Enqueue(labelPath string, anns []domain.Annotation) error {
	return q.push(saveJob{path: labelPath, anns: anns})
}

// Flush waits until every write enqueued before the call has finished and
// returns the failures collected since the previous Flush.
func (q *SaveQueue) Flush(ctx context.Context) error {
	done := make(chan error, 1)
	if err := q.push(saveJob{done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer
func (q *SaveQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.stopped
		return nil
	}
	q.closed = true
	q.mu.Unlock()
	q.signal()

	<-q.stopped

	q.mu.Lock()
	defer q.mu.Unlock()
	err := errors.Join(q.failed...)
	q.failed = nil
	return err
}

func (q *SaveQueue) push(job saveJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, job)
	q.mu.Unlock()
	q.signal()
	return nil
}

func (q *SaveQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *SaveQueue) run() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		job := q.pending[0]
		q.pending[0] = saveJob{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if job.done != nil {
			q.mu.Lock()
			err := errors.Join(q.failed...)
			q.failed = nil
			q.mu.Unlock()
			job.done <- err
			continue
		}
		q.process(job)
	}
}

func (q *SaveQueue) process(job saveJob) {
	err := q.write(job.path, job.anns)
	if err == nil {
		return
	}
	q.logger.Warn("label write failed, retrying", "path", job.path, "error", err)

	if err = q.write(job.path, job.anns); err == nil {
		return
	}
	q.logger.Error("label write failed", "path", job.path, "error", err)

	q.mu.Lock()
	q.failed = append(q.failed, err)
	q.mu.Unlock()
	if q.onError != nil {
		q.onError(job.path, err)
	}
}
