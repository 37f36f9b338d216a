package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/wallet"
)

// State is the lifecycle position of a Task.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Kind names the orchestrator a task runs.
type Kind string

const (
	KindExport Kind = "export"
	KindImport Kind = "import"
)

// Listener receives the single completion notification of a task.
type Listener interface {
	OnComplete(success bool)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(success bool)

// OnComplete calls f(success).
func (f ListenerFunc) OnComplete(success bool) { f(success) }

// ErrWorkerStopped is the result of a task abandoned by a cancelled worker.
var ErrWorkerStopped = errors.New("worker stopped before task ran")

// Task is one asynchronous export or import.
type Task struct {
	id       string
	kind     Kind
	format   format.ID
	run      func(ctx context.Context) (exchange.Summary, error)
	stream   any
	listener Listener

	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
	idGen   IDGenerator

	state   atomic.Int32
	done    chan struct{}
	err     error
	summary exchange.Summary
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithLogger sets the task logger. Default: slog.Default().
func WithLogger(l *slog.Logger) TaskOption {
	return func(t *Task) { t.logger = l }
}

// WithMetrics records the task outcome in m.
func WithMetrics(m *Metrics) TaskOption {
	return func(t *Task) { t.metrics = m }
}

// WithIDGenerator replaces the UUIDv7 task id source.
func WithIDGenerator(g IDGenerator) TaskOption {
	return func(t *Task) { t.idGen = g }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) TaskOption {
	return func(t *Task) { t.now = now }
}

// NewExportTask prepares an export of src to w. The task owns w: if it is an
// io.Closer it is closed when the export finishes, and a close failure fails
// the task.
func NewExportTask(e *exchange.Engine, src wallet.Reader, w io.Writer, id format.ID, l Listener, opts ...TaskOption) *Task {
	t := newTask(KindExport, id, w, l, opts)
	t.run = func(ctx context.Context) (exchange.Summary, error) {
		return e.Export(ctx, src, w, id)
	}
	return t
}

// NewImportTask prepares an import of r into gw. The task owns r: if it is an
// io.Closer it is closed when the import finishes.
func NewImportTask(e *exchange.Engine, gw wallet.Gateway, r io.Reader, id format.ID, l Listener, opts ...TaskOption) *Task {
	t := newTask(KindImport, id, r, l, opts)
	t.run = func(ctx context.Context) (exchange.Summary, error) {
		return e.Import(ctx, gw, r, id)
	}
	return t
}

func newTask(kind Kind, id format.ID, stream any, l Listener, opts []TaskOption) *Task {
	t := &Task{
		kind:     kind,
		format:   id,
		stream:   stream,
		listener: l,
		logger:   slog.Default(),
		now:      time.Now,
		idGen:    UUIDv7Generator{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.id = t.idGen.Generate()
	t.logger = t.logger.With("task_id", t.id, "kind", string(kind), "format", string(id))
	return t
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Kind returns the orchestrator the task runs.
func (t *Task) Kind() Kind { return t.kind }

// State returns the current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// Start runs the task on a new goroutine. It returns false if the task was
// already started or submitted to a Worker.
func (t *Task) Start(ctx context.Context) bool {
	if !t.claim() {
		return false
	}
	go t.execute(context.WithoutCancel(ctx))
	return true
}

// Done is closed once the task is Completed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx ends, and returns the task's
// error or ctx.Err().
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the task's error once Completed, and nil before that.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Summary returns the orchestrator summary once Completed.
func (t *Task) Summary() exchange.Summary {
	select {
	case <-t.done:
		return t.summary
	default:
		return exchange.Summary{}
	}
}

// claim moves Idle to Running.
func (t *Task) claim() bool {
	return t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

// execute runs a claimed task to completion on the calling goroutine.
func (t *Task) execute(ctx context.Context) {
	t.logger.Debug("task started")
	start := t.now()

	sum, err := t.run(ctx)
	if cerr := t.closeStream(); cerr != nil {
		if t.kind == KindExport && err == nil {
			err = fmt.Errorf("close sink: %w", cerr)
		} else {
			t.logger.Warn("closing stream failed", "error", cerr)
		}
	}

	t.finish(sum, err, t.now().Sub(start))
}

// abandon completes a claimed task that will never run.
func (t *Task) abandon(err error) {
	if cerr := t.closeStream(); cerr != nil {
		t.logger.Warn("closing stream failed", "error", cerr)
	}
	t.finish(exchange.Summary{Format: t.format}, err, 0)
}

func (t *Task) finish(sum exchange.Summary, err error, elapsed time.Duration) {
	t.summary, t.err = sum, err
	t.metrics.observe(t.kind, err == nil, elapsed)

	if err != nil {
		t.logger.Error("task failed", "duration", elapsed, "error", err)
	} else {
		t.logger.Info("task completed", "duration", elapsed, "cards", sum.Cards)
	}

	t.state.Store(int32(StateCompleted))
	close(t.done)

	if t.listener != nil {
		t.listener.OnComplete(err == nil)
	}
}

func (t *Task) closeStream() error {
	if c, ok := t.stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
