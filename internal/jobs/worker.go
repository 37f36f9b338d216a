package jobs

import (
	"context"
	"log/slog"
	"sync"
)

// Worker executes tasks one at a time in FIFO order.
//
// Thread-safety model:
//   - Submit(), Stop(), Len(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Worker struct {
	queue  *taskQueue
	logger *slog.Logger
}

// NewWorker creates an idle worker. Call Run to start processing.
func NewWorker(logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: newTaskQueue(), logger: logger}
}

// Submit claims t and queues it. It returns false if t was already started,
// or if the worker is stopped, in which case t completes with
// ErrWorkerStopped.
func (w *Worker) Submit(t *Task) bool {
	if !t.claim() {
		return false
	}
	if !w.queue.Enqueue(t) {
		t.abandon(ErrWorkerStopped)
		return false
	}
	return true
}

// Len returns the number of queued tasks.
func (w *Worker) Len() int { return w.queue.Len() }

// Stop refuses further submissions. Run finishes the queued tasks and
// returns nil.
func (w *Worker) Stop() { w.queue.Close() }

// Run processes tasks until Stop has been called and the queue is drained,
// or ctx is cancelled. On cancellation the task in progress finishes and
// every queued task completes with ErrWorkerStopped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker starting")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopping: context cancelled", "abandoned", w.queue.Len())
			w.drain()
			return err
		}

		if t, ok := w.queue.TryDequeue(); ok {
			t.execute(context.WithoutCancel(ctx))
			continue
		}

		if w.queue.IsClosed() {
			w.logger.Info("worker stopping: queue closed")
			return nil
		}

		select {
		case <-ctx.Done():
		case <-w.queue.Wait():
		}
	}
}

func (w *Worker) drain() {
	w.queue.Close()
	for {
		t, ok := w.queue.TryDequeue()
		if !ok {
			return
		}
		t.abandon(ErrWorkerStopped)
	}
}

// taskQueue is a thread-safe unbounded FIFO queue of tasks.
//
// The signal channel (buffered, size 1) lets Run wait for work while
// watching its context.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []*Task
	closed bool
	signal chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]*Task, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a task to the back of the queue.
// Returns false if the queue is closed.
func (q *taskQueue) Enqueue(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front task without blocking.
func (q *taskQueue) TryDequeue() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return t, true
}

// Wait returns a channel that signals when tasks may be available.
// It is closed when the queue closes.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *taskQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close refuses further tasks and wakes any waiter.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
