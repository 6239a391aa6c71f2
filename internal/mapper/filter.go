package mapper

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	q "github.com/mcwdsi/rt2n4j/internal/queryir"
)

// filterVar is the variable each filter branch binds its tuple to.
const filterVar = "t"

// Filter selects tuples by field value. Nil and empty fields are ignored;
// an empty Filter matches every tuple.
//
// List fields match by exact position: P = [a, b] selects tuples whose
// first element is a and whose second is b, regardless of any further
// elements.
type Filter struct {
	Rui          ir.Rui
	Ruin         ir.Rui
	Ruir         ir.Rui
	Ruia         ir.Rui
	Ruid         ir.Rui
	Ruit         ir.Rui
	Ruitn        ir.Rui
	Ta           *ir.TempRef
	Tr           *ir.TempRef
	Polarity     *bool
	EventReason  *ir.ChangeReason
	Event        *ir.EventType
	Code         *string
	C            *float64
	Data         []byte // nil is unset; empty selects empty payloads
	R            ir.Relation
	P            []ir.Rui
	Replacements []ir.Rui

	// Types restricts the result to the given variants. Empty means any
	// tuple.
	Types []ir.TupleType
}

// BuildFilter returns the read statement for f: one branch per requested
// type, joined by UNION, each returning the distinct matching identifiers
// as "rui".
func BuildFilter(f Filter) (q.Statement, error) {
	labels := []q.Label{LabelTuple}
	if len(f.Types) > 0 {
		labels = labels[:0]
		seen := map[ir.TupleType]bool{}
		for _, tt := range f.Types {
			if _, err := ir.ParseTupleType(string(tt)); err != nil {
				return nil, err
			}
			if seen[tt] {
				continue
			}
			seen[tt] = true
			labels = append(labels, variantLabel(tt))
		}
	}

	parts := make([]q.Query, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, f.branch(l))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return q.Union{Parts: parts}, nil
}

// filterBuilder accumulates one branch: a pattern clause per link field
// and an equality per present field.
type filterBuilder struct {
	clauses []q.Atomic
	preds   []q.Predicate
}

func (b *filterBuilder) property(c ir.Component, v any) {
	b.preds = append(b.preds, q.Eq(filterVar, string(c), q.P(string(c), v)))
}

func (b *filterBuilder) linked(rel q.RelPattern, alias, key, param string, v any) {
	b.clauses = append(b.clauses, q.Match(q.Link(q.Ref(filterVar), rel, q.Node(alias))))
	b.preds = append(b.preds, q.Eq(alias, key, q.P(param, v)))
}

func (b *filterBuilder) ref(c ir.Component, r ir.Rui) {
	if r == nil {
		return
	}
	b.linked(edge(c), "f_"+string(c), keyRui, string(c), ir.RuiString(r))
}

func (b *filterBuilder) temporal(c ir.Component, r *ir.TempRef) {
	if r == nil || r.Rui == nil {
		return
	}
	b.linked(edge(c), "f_"+string(c), keyRui, string(c), r.String())
}

func (b *filterBuilder) ordered(c ir.Component, ids []ir.Rui) {
	for i, r := range ids {
		name := fmt.Sprintf("%s_%d", c, i)
		b.linked(edge(c).With(string(c), q.Literal{Value: i}), "f_"+name, keyRui, name, ir.RuiString(r))
	}
}

func (f Filter) branch(label q.Label) q.Query {
	b := &filterBuilder{clauses: []q.Atomic{q.Match(q.Node(filterVar, label))}}

	if f.Rui != nil {
		b.property(ir.CompRui, ir.RuiString(f.Rui))
	}
	if f.Polarity != nil {
		b.property(ir.CompPolarity, *f.Polarity)
	}
	if f.EventReason != nil {
		b.property(ir.CompEventReason, string(*f.EventReason))
	}
	if f.Event != nil {
		b.property(ir.CompEvent, string(*f.Event))
	}
	if f.C != nil {
		b.property(ir.CompC, *f.C)
	}

	b.ref(ir.CompRuin, f.Ruin)
	b.ref(ir.CompRuir, f.Ruir)
	b.ref(ir.CompRuia, f.Ruia)
	b.ref(ir.CompRuid, f.Ruid)
	b.ref(ir.CompRuit, f.Ruit)
	b.ref(ir.CompRuitn, f.Ruitn)
	b.temporal(ir.CompTa, f.Ta)
	b.temporal(ir.CompTr, f.Tr)

	if f.R != "" {
		b.linked(edge(ir.CompR), "f_r", keyURI, string(ir.CompR), string(f.R))
	}
	if f.Code != nil {
		b.linked(edge(ir.CompCode), "f_code", string(ir.CompCode), string(ir.CompCode), *f.Code)
	}
	if f.Data != nil {
		b.linked(edge(ir.CompData), "f_data", string(ir.CompData), string(ir.CompData), base64.StdEncoding.EncodeToString(f.Data))
	}

	b.ordered(ir.CompP, f.P)
	b.ordered(ir.CompReplacements, f.Replacements)

	last := len(b.clauses) - 1
	b.clauses[last] = b.clauses[last].Filter(q.AllOf(b.preds...))

	clauses := make([]q.Clause, 0, len(b.clauses)+1)
	for _, c := range b.clauses {
		clauses = append(clauses, c)
	}
	clauses = append(clauses, q.Return{
		Items:    []q.Projection{q.Item(filterVar, keyRui, keyRui)},
		Distinct: true,
	})
	return q.Query{Clauses: clauses}
}

// Query returns the identifiers of the tuples matching f, sorted.
func Query(ctx context.Context, tx graph.Tx, f Filter) ([]ir.Rui, error) {
	if tx == nil {
		return nil, ErrTransactionNotSet
	}
	stmt, err := BuildFilter(f)
	if err != nil {
		return nil, err
	}
	return collectRuis(ctx, tx, stmt)
}

// Authored returns the tuples an author introduced, found through the
// author field of DI tuples.
func Authored(ctx context.Context, tx graph.Tx, author ir.Rui) ([]ir.Rui, error) {
	if tx == nil {
		return nil, ErrTransactionNotSet
	}
	stmt := q.Query{Clauses: []q.Clause{
		q.Match(q.Link(q.Node("di", variantLabel(ir.TypeDI)), edge(ir.CompRuia),
			q.Node("author", LabelIdentified).With(keyRui, q.P("author", ir.RuiString(author))))),
		q.Match(q.Link(q.Ref("di"), edge(ir.CompRuit), q.Node(filterVar, LabelTuple))),
		q.Return{Items: []q.Projection{q.Item(filterVar, keyRui, keyRui)}, Distinct: true, OrderBy: []string{keyRui}},
	}}
	return collectRuis(ctx, tx, stmt)
}

// Referencing returns the tuples with any link to the node carrying rui.
func Referencing(ctx context.Context, tx graph.Tx, rui ir.Rui) ([]ir.Rui, error) {
	if tx == nil {
		return nil, ErrTransactionNotSet
	}
	stmt := q.Query{Clauses: []q.Clause{
		q.Match(q.Link(q.Node(filterVar, LabelTuple), q.RelPattern{},
			q.Node("referent", LabelIdentified).With(keyRui, q.P("referent", ir.RuiString(rui))))),
		q.Return{Items: []q.Projection{q.Item(filterVar, keyRui, keyRui)}, Distinct: true, OrderBy: []string{keyRui}},
	}}
	return collectRuis(ctx, tx, stmt)
}

// AvailableRuis returns every identifier stored in the graph.
func AvailableRuis(ctx context.Context, tx graph.Tx) ([]ir.Rui, error) {
	if tx == nil {
		return nil, ErrTransactionNotSet
	}
	stmt := q.Query{Clauses: []q.Clause{
		q.Match(q.Node("n", LabelIdentified)),
		q.Return{Items: []q.Projection{q.Item("n", keyRui, keyRui)}, Distinct: true, OrderBy: []string{keyRui}},
	}}
	return collectRuis(ctx, tx, stmt)
}

func collectRuis(ctx context.Context, tx graph.Tx, stmt q.Statement) ([]ir.Rui, error) {
	rows, err := tx.Run(ctx, stmt)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		s, err := row.String(keyRui)
		if err != nil {
			return nil, err
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		ids = append(ids, s)
	}
	sort.Strings(ids)

	out := make([]ir.Rui, 0, len(ids))
	for _, s := range ids {
		r, err := ir.ParseRui(s)
		if err != nil {
			return nil, fmt.Errorf("stored rui %q: %w", s, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// FilterFromFields builds a Filter from stored-form field values keyed by
// component name, plus an optional "types" list. Fields that cannot be
// filtered on are rejected.
func FilterFromFields(fields map[string]any) (Filter, error) {
	var f Filter
	rest := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "types" {
			rest[k] = v
			continue
		}
		names, ok := v.([]any)
		if !ok {
			return Filter{}, fmt.Errorf("types: expected a list, got %T", v)
		}
		for _, n := range names {
			s, ok := n.(string)
			if !ok {
				return Filter{}, fmt.Errorf("types: expected strings, got %T", n)
			}
			tt, err := ir.ParseTupleType(s)
			if err != nil {
				return Filter{}, err
			}
			f.Types = append(f.Types, tt)
		}
	}

	attrs, err := DecodeFields(rest)
	if err != nil {
		return Filter{}, err
	}
	for _, c := range attrs.SortedComponents() {
		switch v := attrs[c].(type) {
		case ir.IDValue:
			switch c {
			case ir.CompRui:
				f.Rui = v.Rui
			case ir.CompRuin:
				f.Ruin = v.Rui
			case ir.CompRuir:
				f.Ruir = v.Rui
			case ir.CompRuia:
				f.Ruia = v.Rui
			case ir.CompRuid:
				f.Ruid = v.Rui
			case ir.CompRuit:
				f.Ruit = v.Rui
			case ir.CompRuitn:
				f.Ruitn = v.Rui
			default:
				return Filter{}, notFilterable(c)
			}
		case ir.TempRefValue:
			ref := v.Ref
			if c == ir.CompTa {
				f.Ta = &ref
			} else {
				f.Tr = &ref
			}
		case ir.BoolValue:
			b := bool(v)
			f.Polarity = &b
		case ir.FloatValue:
			x := float64(v)
			f.C = &x
		case ir.CodeValue:
			switch c {
			case ir.CompEventReason:
				r := ir.ChangeReason(v)
				f.EventReason = &r
			case ir.CompEvent:
				e := ir.EventType(v)
				f.Event = &e
			default:
				return Filter{}, notFilterable(c)
			}
		case ir.TextValue:
			s := string(v)
			f.Code = &s
		case ir.BytesValue:
			f.Data = append([]byte{}, v...)
		case ir.RelationValue:
			f.R = ir.Relation(v)
		case ir.IDListValue:
			if c == ir.CompP {
				f.P = []ir.Rui(v)
			} else {
				f.Replacements = []ir.Rui(v)
			}
		default:
			return Filter{}, notFilterable(c)
		}
	}
	return f, nil
}

func notFilterable(c ir.Component) error {
	return fmt.Errorf("field %q cannot be used in a filter", c)
}
