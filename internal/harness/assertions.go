package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/wallet/internal/wallet"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Type, event.Format, event.Outcome)
		}
	}
	return buf.String()
}

// AssertionContext provides store access for evaluating assertions.
type AssertionContext struct {
	Ctx     context.Context
	Store   wallet.Reader
	Initial *storeState
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertExportContains:
			err = assertExportContains(result.LastExport, assertion)
		case AssertFinalCard, AssertCardAbsent, AssertCardCount, AssertGroupCount, AssertUnchanged:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires store context", i, assertion.Type)
				break
			}
			err = assertStore(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) && ae.Trace == nil {
				ae.Trace = result.Trace
			}
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertTraceCount checks how many steps of a type ended with an outcome.
// An empty outcome counts every step of the type.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type != assertion.Step {
			continue
		}
		if assertion.Outcome == "" || event.Outcome == assertion.Outcome {
			count++
		}
	}

	if count != assertion.Count {
		what := assertion.Step
		if assertion.Outcome != "" {
			what += " with outcome " + assertion.Outcome
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertExportContains(output string, assertion Assertion) error {
	for _, want := range assertion.Contains {
		if !strings.Contains(output, want) {
			return &AssertionError{
				Type:     AssertExportContains,
				Expected: fmt.Sprintf("last export to contain %q", want),
				Actual:   fmt.Sprintf("export output:\n%s", output),
			}
		}
	}
	return nil
}

func assertStore(actx *AssertionContext, assertion Assertion) error {
	ctx := actx.Ctx
	switch assertion.Type {
	case AssertCardCount:
		n, err := actx.Store.CardCount(ctx)
		if err != nil {
			return err
		}
		return countMismatch(AssertCardCount, "cards", assertion.Count, n)

	case AssertGroupCount:
		n, err := actx.Store.GroupCount(ctx)
		if err != nil {
			return err
		}
		return countMismatch(AssertGroupCount, "groups", assertion.Count, n)

	case AssertCardAbsent:
		_, err := actx.Store.GetCard(ctx, assertion.Card)
		if errors.Is(err, wallet.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return &AssertionError{
			Type:     AssertCardAbsent,
			Expected: fmt.Sprintf("no card %d", assertion.Card),
			Actual:   "card exists",
		}

	case AssertFinalCard:
		return assertFinalCard(ctx, actx.Store, assertion)

	case AssertUnchanged:
		if actx.Initial == nil {
			return fmt.Errorf("unchanged assertion requires the setup state")
		}
		now, err := takeState(ctx, actx.Store)
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(actx.Initial, now) {
			return &AssertionError{
				Type:     AssertUnchanged,
				Expected: fmt.Sprintf("store as after setup: %s", actx.Initial),
				Actual:   now.String(),
			}
		}
		return nil
	}
	return fmt.Errorf("unknown store assertion %q", assertion.Type)
}

func countMismatch(typ, what string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d %s", want, what),
		Actual:   fmt.Sprintf("%d %s", got, what),
	}
}

// assertFinalCard checks the expected card fields using subset semantics.
// Field names are the interchange column names plus "groups".
func assertFinalCard(ctx context.Context, r wallet.Reader, assertion Assertion) error {
	card, err := r.GetCard(ctx, assertion.Card)
	if errors.Is(err, wallet.ErrNotFound) {
		return &AssertionError{
			Type:     AssertFinalCard,
			Expected: fmt.Sprintf("card %d", assertion.Card),
			Actual:   "card not found",
		}
	}
	if err != nil {
		return err
	}
	groups, err := r.CardGroups(ctx, card.ID)
	if err != nil {
		return err
	}
	actual := cardFields(card, groups)

	for _, key := range sortedKeys(assertion.Expect) {
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalCard,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q is not a card field", key),
			}
		}
		expectedValue := normalize(assertion.Expect[key])
		if !reflect.DeepEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalCard,
				Expected: fmt.Sprintf("card %d field %q = %v (type %T)", card.ID, key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("card %d field %q = %v (type %T)", card.ID, key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// cardFields flattens a card for comparison. Integers are int64, absent
// optionals are nil.
func cardFields(c wallet.Card, groups []string) map[string]interface{} {
	fields := map[string]interface{}{
		"id":              c.ID,
		"store":           c.Store,
		"note":            c.Note,
		"cardId":          c.CardID,
		"barcodeType":     c.BarcodeType,
		"starStatus":      int64(c.StarStatus),
		"headerColor":     nil,
		"headerTextColor": nil,
		"expiry":          nil,
		"groups":          append([]string{}, groups...),
	}
	if c.HeaderColor != nil {
		fields["headerColor"] = *c.HeaderColor
	}
	if c.HeaderTextColor != nil {
		fields["headerTextColor"] = *c.HeaderTextColor
	}
	if c.Expiry != nil {
		fields["expiry"] = c.Expiry.UnixMilli()
	}
	return fields
}

// normalize converts YAML-decoded values to the types cardFields uses.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			out = append(out, fmt.Sprint(elem))
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
