// Package querycypher compiles queryir statements to parameterized Cypher.
package querycypher

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mcwdsi/rt2n4j/internal/queryir"
)

// CypherCompiler compiles QueryIR to parameterized Cypher for Neo4j.
//
// Data values are never interpolated: every Param becomes $name and its value
// goes into the parameter map. Only validated identifiers and integer or
// boolean literals reach the query text.
type CypherCompiler struct{}

// NewCypherCompiler creates a new CypherCompiler.
func NewCypherCompiler() *CypherCompiler {
	return &CypherCompiler{}
}

// Compile is shorthand for NewCypherCompiler().Compile(stmt).
func Compile(stmt queryir.Statement) (string, map[string]any, error) {
	return NewCypherCompiler().Compile(stmt)
}

// Compile converts a statement to Cypher text and its parameter map.
// Output is deterministic: one clause per line, properties sorted by key.
func (c *CypherCompiler) Compile(stmt queryir.Statement) (string, map[string]any, error) {
	if err := queryir.Validate(stmt).Err(); err != nil {
		return "", nil, err
	}

	r := &renderer{params: map[string]any{}}
	switch s := stmt.(type) {
	case queryir.Query:
		r.query(s)
	case *queryir.Query:
		r.query(*s)
	case queryir.Union:
		r.union(s)
	case *queryir.Union:
		r.union(*s)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
	return r.buf.String(), r.params, nil
}

type renderer struct {
	buf    strings.Builder
	params map[string]any
}

func (r *renderer) union(u queryir.Union) {
	for i, part := range u.Parts {
		if i > 0 {
			r.buf.WriteString("\nUNION\n")
		}
		r.query(part)
	}
}

func (r *renderer) query(q queryir.Query) {
	for i, c := range q.Clauses {
		if i > 0 {
			r.buf.WriteByte('\n')
		}
		switch cl := c.(type) {
		case queryir.Atomic:
			r.atomic(cl)
		case *queryir.Atomic:
			r.atomic(*cl)
		case queryir.Return:
			r.ret(cl)
		case *queryir.Return:
			r.ret(*cl)
		}
	}
}

func (r *renderer) atomic(a queryir.Atomic) {
	r.buf.WriteString(a.Mode.String())
	r.buf.WriteByte(' ')

	switch p := a.Pattern.(type) {
	case queryir.NodePattern:
		r.node(p)
	case *queryir.NodePattern:
		r.node(*p)
	case queryir.Path:
		r.path(p)
	case *queryir.Path:
		r.path(*p)
	}

	if a.Where != nil {
		r.buf.WriteString(" WHERE ")
		r.predicate(a.Where)
	}

	if len(a.OnCreate) > 0 {
		r.buf.WriteString(" ON CREATE SET ")
		for i, as := range a.OnCreate {
			if i > 0 {
				r.buf.WriteString(", ")
			}
			r.buf.WriteString(as.Var + "." + as.Key + " = ")
			r.expr(as.Value)
		}
	}
}

func (r *renderer) path(p queryir.Path) {
	r.node(p.Start)
	for _, step := range p.Steps {
		r.rel(step.Rel)
		r.node(step.Node)
	}
}

// node renders (name:L1:L2 {k: v}).
func (r *renderer) node(n queryir.NodePattern) {
	r.buf.WriteByte('(')
	r.buf.WriteString(n.Name)
	for _, l := range n.Labels {
		r.buf.WriteByte(':')
		r.buf.WriteString(string(l))
	}
	if len(n.Props) > 0 {
		if n.Name != "" || len(n.Labels) > 0 {
			r.buf.WriteByte(' ')
		}
		r.props(n.Props)
	}
	r.buf.WriteByte(')')
}

// rel renders -[name:TYPE {k: v}]-> or its incoming form.
func (r *renderer) rel(rel queryir.RelPattern) {
	if rel.Direction == queryir.Incoming {
		r.buf.WriteString("<-[")
	} else {
		r.buf.WriteString("-[")
	}
	r.buf.WriteString(rel.Name)
	if rel.Type != "" {
		r.buf.WriteByte(':')
		r.buf.WriteString(string(rel.Type))
	}
	if len(rel.Props) > 0 {
		if rel.Name != "" || rel.Type != "" {
			r.buf.WriteByte(' ')
		}
		r.props(rel.Props)
	}
	if rel.Direction == queryir.Incoming {
		r.buf.WriteString("]-")
	} else {
		r.buf.WriteString("]->")
	}
}

// props renders {k1: v1, k2: v2} with keys sorted for deterministic output.
func (r *renderer) props(props queryir.Props) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r.buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			r.buf.WriteString(", ")
		}
		r.buf.WriteString(k)
		r.buf.WriteString(": ")
		r.expr(props[k])
	}
	r.buf.WriteByte('}')
}

func (r *renderer) expr(e queryir.Expr) {
	switch x := e.(type) {
	case queryir.Param:
		r.param(x)
	case *queryir.Param:
		r.param(*x)
	case queryir.Literal:
		switch v := x.Value.(type) {
		case int:
			r.buf.WriteString(strconv.Itoa(v))
		case int64:
			r.buf.WriteString(strconv.FormatInt(v, 10))
		case bool:
			r.buf.WriteString(strconv.FormatBool(v))
		}
	}
}

func (r *renderer) param(p queryir.Param) {
	r.buf.WriteByte('$')
	r.buf.WriteString(p.Name)
	r.params[p.Name] = p.Value
}

func (r *renderer) predicate(p queryir.Predicate) {
	switch pred := p.(type) {
	case queryir.Equals:
		r.buf.WriteString(pred.Left.Var + "." + pred.Left.Key + " = ")
		r.expr(pred.Right)
	case *queryir.Equals:
		r.predicate(*pred)
	case queryir.NotNull:
		r.buf.WriteString(pred.Prop.Var + "." + pred.Prop.Key + " IS NOT NULL")
	case *queryir.NotNull:
		r.predicate(*pred)
	case queryir.And:
		for i, sub := range pred.Predicates {
			if i > 0 {
				r.buf.WriteString(" AND ")
			}
			r.predicate(sub)
		}
	case *queryir.And:
		r.predicate(*pred)
	}
}

func (r *renderer) ret(ret queryir.Return) {
	r.buf.WriteString("RETURN ")
	if ret.Distinct {
		r.buf.WriteString("DISTINCT ")
	}
	for i, item := range ret.Items {
		if i > 0 {
			r.buf.WriteString(", ")
		}
		switch x := item.Expr.(type) {
		case queryir.Prop:
			r.buf.WriteString(x.Var + "." + x.Key)
		case queryir.LabelsOf:
			r.buf.WriteString("labels(" + x.Var + ")")
		}
		r.buf.WriteString(" AS ")
		r.buf.WriteString(item.Alias)
	}
	if len(ret.OrderBy) > 0 {
		r.buf.WriteString(" ORDER BY ")
		r.buf.WriteString(strings.Join(ret.OrderBy, ", "))
	}
}
