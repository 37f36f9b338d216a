package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/jobs"
	"github.com/roach88/wallet/internal/store"
	"github.com/roach88/wallet/internal/testutil"
	"github.com/roach88/wallet/internal/wallet"
)

// Harness is the scenario execution engine.
// It runs every step as a task on a single worker with deterministic ids.
type Harness struct {
	store  *store.Store
	engine *exchange.Engine
	worker *jobs.Worker
	ids    *testutil.SequenceIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. An error is returned
// only when the scenario could not be executed at all; expectation and
// assertion failures are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store:  st,
		engine: exchange.New(exchange.WithLogger(logger)),
		worker: jobs.NewWorker(logger),
		ids:    testutil.NewSequenceIDGenerator("step"),
		logger: logger,
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	initial, err := takeState(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup state: %w", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- h.worker.Run(ctx) }()

	result := NewResult()
	flowErr := h.executeFlow(ctx, scenario.Flow, result)
	h.worker.Stop()
	if err := <-runErr; err != nil && flowErr == nil {
		flowErr = err
	}
	if flowErr != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", flowErr)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		Initial: initial,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSetup writes the setup groups and cards in one transaction.
func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	tx, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range setup.Groups {
		if _, err := tx.InsertGroup(ctx, name); err != nil {
			return err
		}
	}
	for i, sc := range setup.Cards {
		id, err := tx.InsertCard(ctx, sc.card())
		if err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
		if err := tx.SetCardGroups(ctx, id, sc.Groups); err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (sc SeedCard) card() wallet.Card {
	return wallet.Card{
		ID:          sc.ID,
		Store:       sc.Store,
		Note:        sc.Note,
		CardID:      sc.CardID,
		BarcodeType: sc.BarcodeType,
		HeaderColor: sc.HeaderColor,
		StarStatus:  sc.StarStatus,
	}
}

// executeFlow runs the steps one at a time and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		var (
			task   *jobs.Task
			output *bytes.Buffer
			kind   = stepImport
			ts     = step.Import
		)

		if step.Export != nil {
			kind, ts = stepExport, step.Export
			output = &bytes.Buffer{}
			task = jobs.NewExportTask(h.engine, h.store, output, ts.formatID(), nil, h.taskOptions()...)
		} else {
			input := ts.Input
			if ts.FromLastExport {
				input = result.LastExport
			}
			task = jobs.NewImportTask(h.engine, h.store, strings.NewReader(input), ts.formatID(), nil, h.taskOptions()...)
		}

		if !h.worker.Submit(task) {
			return fmt.Errorf("flow step %d: worker rejected task", i)
		}
		select {
		case <-task.Done():
		case <-ctx.Done():
			return fmt.Errorf("flow step %d: %w", i, ctx.Err())
		}

		ev := TraceEvent{
			TaskID:  task.ID(),
			Type:    kind,
			Format:  ts.Format,
			Outcome: outcomeOf(task.Err()),
		}
		if task.Err() == nil {
			sum := task.Summary()
			ev.Summary = &TraceSummary{
				Cards:         sum.Cards,
				Groups:        sum.Groups,
				Memberships:   sum.Memberships,
				Inserted:      sum.Inserted,
				Updated:       sum.Updated,
				GroupsCreated: sum.GroupsCreated,
			}
			if output != nil {
				result.LastExport = output.String()
			}
		}
		result.addEvent(ev)

		for _, msg := range checkExpect(i, step.Expect, ev, task.Err()) {
			result.AddError(msg)
		}

		h.logger.Info("flow step completed",
			"step", i,
			"task_id", ev.TaskID,
			"type", ev.Type,
			"outcome", ev.Outcome,
		)
	}
	return nil
}

func (h *Harness) taskOptions() []jobs.TaskOption {
	return []jobs.TaskOption{
		jobs.WithLogger(h.logger),
		jobs.WithIDGenerator(h.ids),
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	return exchange.KindOf(err).String()
}

// checkExpect compares a step outcome with its expect clause. A missing
// clause expects success.
func checkExpect(index int, expect *ExpectClause, ev TraceEvent, err error) []string {
	want := &ExpectClause{Outcome: outcomeOK}
	if expect != nil {
		want = expect
	}

	var msgs []string
	if ev.Outcome != want.Outcome {
		msgs = append(msgs, fmt.Sprintf("flow[%d]: %s outcome %q, expected %q (error: %v)",
			index, ev.Type, ev.Outcome, want.Outcome, err))
		return msgs
	}
	if len(want.Summary) == 0 {
		return nil
	}
	if ev.Summary == nil {
		return []string{fmt.Sprintf("flow[%d]: summary expected but step failed", index)}
	}

	actual := ev.Summary.asMap()
	for _, key := range sortedKeys(want.Summary) {
		got, ok := actual[key]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("flow[%d]: unknown summary field %q", index, key))
			continue
		}
		if got != want.Summary[key] {
			msgs = append(msgs, fmt.Sprintf("flow[%d]: summary %s = %d, expected %d", index, key, got, want.Summary[key]))
		}
	}
	return msgs
}
