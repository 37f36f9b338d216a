package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq     int           `json:"seq"`
	TaskID  string        `json:"task_id"`
	Type    string        `json:"type"` // "import" or "export"
	Format  string        `json:"format"`
	Outcome string        `json:"outcome"` // "ok" or an error kind
	Summary *TraceSummary `json:"summary,omitempty"`
}

// TraceSummary is the counting part of a transfer summary.
type TraceSummary struct {
	Cards         int `json:"cards"`
	Groups        int `json:"groups"`
	Memberships   int `json:"memberships"`
	Inserted      int `json:"inserted"`
	Updated       int `json:"updated"`
	GroupsCreated int `json:"groups_created"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains the flow steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// LastExport holds the output of the most recent export step.
	LastExport string `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

func (s *TraceSummary) asMap() map[string]int {
	return map[string]int{
		"cards":          s.Cards,
		"groups":         s.Groups,
		"memberships":    s.Memberships,
		"inserted":       s.Inserted,
		"updated":        s.Updated,
		"groups_created": s.GroupsCreated,
	}
}
