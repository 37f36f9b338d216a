package jobs

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine() *exchange.Engine {
	return exchange.New(exchange.WithLogger(discardLogger()))
}

func testOptions() []TaskOption {
	return []TaskOption{
		WithLogger(discardLogger()),
		WithIDGenerator(testutil.NewSequenceIDGenerator("job")),
	}
}

// recorder captures completion callbacks.
type recorder struct {
	ch chan bool
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan bool, 4)}
}

func (r *recorder) OnComplete(success bool) { r.ch <- success }

// next waits for one callback.
func (r *recorder) next() (bool, bool) {
	select {
	case v := <-r.ch:
		return v, true
	case <-time.After(5 * time.Second):
		return false, false
	}
}

// closingBuffer records Close calls and can fail them.
type closingBuffer struct {
	mu       sync.Mutex
	data     []byte
	closed   int
	closeErr error
}

func (b *closingBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *closingBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return b.closeErr
}

func (b *closingBuffer) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

var errClose = errors.New("close failed")
