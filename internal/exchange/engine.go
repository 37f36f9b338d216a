package exchange

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/wallet"
)

// Engine runs exports and imports against a format registry.
//
// An Engine holds no per-run state and is safe for concurrent use, but
// callers must not run two imports against the same store at once.
type Engine struct {
	registry *format.Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry selects the adapters available to the engine.
// Default: format.Default().
func WithRegistry(r *format.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: format.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary describes a finished export or import.
type Summary struct {
	Format      format.ID
	Cards       int
	Groups      int
	Memberships int

	// Import only.
	Inserted      int
	Updated       int
	GroupsCreated int
}

// ExportData is Export reduced to a success flag. The error is logged.
func (e *Engine) ExportData(ctx context.Context, src wallet.Reader, w io.Writer, id format.ID) bool {
	_, err := e.Export(ctx, src, w, id)
	return err == nil
}

// ImportData is Import reduced to a success flag. The error is logged.
func (e *Engine) ImportData(ctx context.Context, gw wallet.Gateway, r io.Reader, id format.ID) bool {
	_, err := e.Import(ctx, gw, r, id)
	return err == nil
}

// ExportData runs an export with the default engine.
func ExportData(ctx context.Context, src wallet.Reader, w io.Writer, id format.ID) bool {
	return New().ExportData(ctx, src, w, id)
}

// ImportData runs an import with the default engine.
func ImportData(ctx context.Context, gw wallet.Gateway, r io.Reader, id format.ID) bool {
	return New().ImportData(ctx, gw, r, id)
}
