package harness

import "github.com/mcwdsi/rt2n4j/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq int64  `json:"seq"`
	Op  string `json:"op"`
	// Arg is the step's identifier or type argument, if any.
	Arg string `json:"arg,omitempty"`
	// Ruis holds the saved identifiers for save steps and the returned
	// identifiers for successful lookups.
	Ruis []string `json:"ruis,omitempty"`
	// Error is the failure code, if the step failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true if every step met its expectation.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per unmet expectation.
	Errors []string `json:"errors,omitempty"`
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

// ruiStrings renders identifiers for the trace. The result is never nil.
func ruiStrings(ruis []ir.Rui) []string {
	out := make([]string, 0, len(ruis))
	for _, r := range ruis {
		out = append(out, r.String())
	}
	return out
}

// tupleRuis returns the identifiers of tuples, in order.
func tupleRuis(tuples []ir.Tuple) []string {
	out := make([]string, 0, len(tuples))
	for _, t := range tuples {
		out = append(out, ir.RuiString(t.ID()))
	}
	return out
}
