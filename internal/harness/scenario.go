package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
)

// Scenario defines a transfer scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup is written to the store before the flow runs.
	Setup Setup `yaml:"setup,omitempty"`

	// Flow contains the imports and exports to run, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and store.
	Assertions []Assertion `yaml:"assertions"`
}

// Setup is the initial store content.
type Setup struct {
	Groups []string   `yaml:"groups,omitempty"`
	Cards  []SeedCard `yaml:"cards,omitempty"`
}

// SeedCard is one card written during setup. Groups must be listed in
// Setup.Groups.
type SeedCard struct {
	ID          int64    `yaml:"id"`
	Store       string   `yaml:"store"`
	Note        string   `yaml:"note,omitempty"`
	CardID      string   `yaml:"cardId"`
	BarcodeType string   `yaml:"barcodeType,omitempty"`
	HeaderColor *int64   `yaml:"headerColor,omitempty"`
	StarStatus  int      `yaml:"starStatus,omitempty"`
	Groups      []string `yaml:"groups,omitempty"`
}

// FlowStep runs exactly one of Import or Export.
type FlowStep struct {
	Import *TransferStep `yaml:"import,omitempty"`
	Export *TransferStep `yaml:"export,omitempty"`

	// Expect is checked against the task outcome. Nil means the step must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// TransferStep configures an import or export.
type TransferStep struct {
	Format string `yaml:"format"`

	// Input is the import source text.
	Input string `yaml:"input,omitempty"`

	// FromLastExport imports the output of the previous export step.
	FromLastExport bool `yaml:"from_last_export,omitempty"`
}

// ExpectClause specifies the expected task outcome.
type ExpectClause struct {
	// Outcome is "ok" or an error kind: format, parse, validation, store, sink.
	Outcome string `yaml:"outcome"`

	// Summary holds expected summary counts. Subset match.
	Summary map[string]int `yaml:"summary,omitempty"`
}

// Assertion validates the trace or the final store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step and Outcome filter trace events (trace_count).
	Step    string `yaml:"step,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Card is the card id (final_card, card_absent).
	Card int64 `yaml:"card,omitempty"`

	// Expect contains expected card fields (final_card). Subset match.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number (trace_count, card_count, group_count).
	Count int `yaml:"count,omitempty"`

	// Contains lists substrings of the last export (export_contains).
	Contains []string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount     = "trace_count"
	AssertFinalCard      = "final_card"
	AssertCardAbsent     = "card_absent"
	AssertCardCount      = "card_count"
	AssertGroupCount     = "group_count"
	AssertExportContains = "export_contains"
	AssertUnchanged      = "unchanged"
)

const (
	stepImport = "import"
	stepExport = "export"
	outcomeOK  = "ok"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	groups := make(map[string]bool, len(s.Setup.Groups))
	for i, name := range s.Setup.Groups {
		if name == "" {
			return fmt.Errorf("setup.groups[%d]: name is required", i)
		}
		groups[name] = true
	}
	for i, c := range s.Setup.Cards {
		if c.CardID == "" {
			return fmt.Errorf("setup.cards[%d]: cardId is required", i)
		}
		for _, g := range c.Groups {
			if !groups[g] {
				return fmt.Errorf("setup.cards[%d]: group %q is not in setup.groups", i, g)
			}
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *FlowStep) error {
	if (step.Import == nil) == (step.Export == nil) {
		return fmt.Errorf("flow[%d]: exactly one of import or export is required", index)
	}
	t := step.Import
	if t == nil {
		t = step.Export
		if t.Input != "" || t.FromLastExport {
			return fmt.Errorf("flow[%d]: export takes no input", index)
		}
	}
	if t.Format == "" {
		return fmt.Errorf("flow[%d]: format is required", index)
	}
	if t.Input != "" && t.FromLastExport {
		return fmt.Errorf("flow[%d]: input and from_last_export are exclusive", index)
	}
	if step.Expect != nil && !validOutcome(step.Expect.Outcome) {
		return fmt.Errorf("flow[%d].expect: unknown outcome %q", index, step.Expect.Outcome)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Step != stepImport && a.Step != stepExport {
			return fmt.Errorf("assertions[%d]: step must be import or export for trace_count", index)
		}
		if a.Outcome != "" && !validOutcome(a.Outcome) {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalCard:
		if a.Card <= 0 {
			return fmt.Errorf("assertions[%d]: card is required for final_card", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_card", index)
		}
	case AssertCardAbsent:
		if a.Card <= 0 {
			return fmt.Errorf("assertions[%d]: card is required for card_absent", index)
		}
	case AssertCardCount, AssertGroupCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertExportContains:
		if len(a.Contains) == 0 {
			return fmt.Errorf("assertions[%d]: contains is required for export_contains", index)
		}
	case AssertUnchanged:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validOutcome(o string) bool {
	if o == outcomeOK {
		return true
	}
	for _, k := range []exchange.Kind{exchange.KindFormat, exchange.KindParse, exchange.KindValidation, exchange.KindStore, exchange.KindSink} {
		if o == k.String() {
			return true
		}
	}
	return false
}

// formatID resolves a step format. Unknown ids are passed through so the
// engine reports them as format errors.
func (t *TransferStep) formatID() format.ID {
	id, err := format.ParseID(t.Format)
	if err != nil {
		return format.ID(t.Format)
	}
	return id
}
