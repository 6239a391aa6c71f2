package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/sqlgraph"
	"github.com/mcwdsi/rt2n4j/internal/store"
	"github.com/mcwdsi/rt2n4j/internal/testutil"
	"github.com/mcwdsi/rt2n4j/internal/tuplefile"
)

// errCodeOther marks a failure that is not a mapper error.
const errCodeOther = "ERROR"

// Harness executes the steps of one scenario.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// outcome is what a step produced.
type outcome struct {
	ruis  []string
	tuple ir.Tuple
	err   error
}

// Run executes a scenario against a fresh in-memory graph.
//
// Unmet expectations are collected in the result; the returned error is
// reserved for failures of the harness itself.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := sqlgraph.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory graph: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		store:  store.New(g, logger),
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}
	defer h.store.Close(ctx)

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) {
	op := step.Op()
	event := TraceEvent{Seq: h.clock.Next(), Op: op, Arg: stepArg(step)}

	out := h.perform(ctx, op, step)
	if op == OpSave {
		event.Ruis = out.ruis
	} else if out.err == nil {
		event.Ruis = out.ruis
	}
	if out.err != nil {
		event.Error = errorCode(out.err)
	}
	result.Trace = append(result.Trace, event)

	for _, msg := range checkExpect(step, out) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", index, op, msg))
	}
}

func (h *Harness) perform(ctx context.Context, op string, step Step) outcome {
	switch op {
	case OpSave:
		tuples := make([]ir.Tuple, 0, len(step.Save))
		ruis := make([]string, 0, len(step.Save))
		for i, doc := range step.Save {
			t, err := tuplefile.FromFields(doc)
			if err != nil {
				return outcome{ruis: ruis, err: fmt.Errorf("tuple %d: %w", i, err)}
			}
			tuples = append(tuples, t)
			ruis = append(ruis, ir.RuiString(t.ID()))
		}
		return outcome{ruis: ruis, err: h.store.SaveAll(ctx, tuples...)}

	case OpCommit:
		return outcome{err: h.store.Commit(ctx)}

	case OpRollback:
		return outcome{err: h.store.Rollback(ctx)}

	case OpGet:
		rui, err := ir.ParseRui(step.Get)
		if err != nil {
			return outcome{err: err}
		}
		t, err := h.store.Get(ctx, rui)
		if err != nil {
			return outcome{err: err}
		}
		return outcome{ruis: []string{ir.RuiString(t.ID())}, tuple: t}

	case OpByAuthor, OpByReferent:
		arg := step.ByAuthor
		lookup := h.store.GetByAuthor
		if op == OpByReferent {
			arg, lookup = step.ByReferent, h.store.GetByReferent
		}
		rui, err := ir.ParseRui(arg)
		if err != nil {
			return outcome{err: err}
		}
		tuples, err := lookup(ctx, rui)
		return outcome{ruis: tupleRuis(tuples), err: err}

	case OpByType:
		tt, err := ir.ParseTupleType(step.ByType)
		if err != nil {
			return outcome{err: err}
		}
		tuples, err := h.store.GetByType(ctx, tt)
		return outcome{ruis: tupleRuis(tuples), err: err}

	case OpRuis:
		ruis, err := h.store.AvailableRuis(ctx)
		return outcome{ruis: ruiStrings(ruis), err: err}

	case OpQuery:
		f, err := mapper.FilterFromFields(step.Query)
		if err != nil {
			return outcome{err: err}
		}
		tuples, err := h.store.Query(ctx, f)
		return outcome{ruis: tupleRuis(tuples), err: err}
	}
	return outcome{err: fmt.Errorf("unknown operation %q", op)}
}

// checkExpect compares an outcome with the step's expectation.
func checkExpect(step Step, out outcome) []string {
	e := step.Expect
	if e == nil {
		if out.err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", out.err)}
		}
		return nil
	}

	var msgs []string
	if e.Error != "" {
		switch got := errorCode(out.err); {
		case out.err == nil:
			msgs = append(msgs, fmt.Sprintf("expected error %s, got success", e.Error))
		case got != e.Error:
			msgs = append(msgs, fmt.Sprintf("expected error %s, got %s: %v", e.Error, got, out.err))
		}
		return msgs
	}
	if out.err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", out.err)}
	}

	if e.Ruis != nil && !slices.Equal(e.Ruis, out.ruis) {
		msgs = append(msgs, fmt.Sprintf("expected ruis %v, got %v", e.Ruis, out.ruis))
	}
	if e.Tuple != nil {
		want, err := tuplefile.FromFields(e.Tuple)
		switch {
		case err != nil:
			msgs = append(msgs, fmt.Sprintf("invalid expected tuple: %v", err))
		case !tuplesEqual(want, out.tuple):
			msgs = append(msgs, fmt.Sprintf("expected tuple %+v, got %+v", want, out.tuple))
		}
	}
	return msgs
}

// tuplesEqual compares tuples by their stored form.
func tuplesEqual(a, b ir.Tuple) bool {
	if a == nil || b == nil {
		return a == b
	}
	da, errA := tuplefile.Fields(a)
	db, errB := tuplefile.Fields(b)
	if errA != nil || errB != nil {
		return false
	}
	ca, errA := canonicalFields(da)
	cb, errB := canonicalFields(db)
	return errA == nil && errB == nil && string(ca) == string(cb)
}

// canonicalFields serializes a tuple document. Floats are rendered as
// strings since canonical JSON has none.
func canonicalFields(doc map[string]any) ([]byte, error) {
	m := make(map[string]any, len(doc))
	for k, v := range doc {
		if f, ok := v.(float64); ok {
			v = fmt.Sprintf("%g", f)
		}
		m[k] = v
	}
	return ir.MarshalCanonical(m)
}

func stepArg(step Step) string {
	for _, s := range []string{step.Get, step.ByAuthor, step.ByReferent, step.ByType} {
		if s != "" {
			return s
		}
	}
	return ""
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var me *mapper.MappingError
	if errors.As(err, &me) {
		return string(me.Code)
	}
	return errCodeOther
}
