package mapper

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/querycypher"
	q "github.com/mcwdsi/rt2n4j/internal/queryir"
)

// Encode writes a tuple inside tx.
//
// The statement matches every referenced node before it creates anything,
// so a missing reference leaves no partial node behind. Encode never
// commits; after an error the caller must roll back.
func Encode(ctx context.Context, tx graph.Tx, t ir.Tuple) error {
	if tx == nil {
		return ErrTransactionNotSet
	}

	p, err := planFor(t)
	if err != nil {
		return err
	}

	taken, err := existingRuis(ctx, tx, p.claims)
	if err != nil {
		return fmt.Errorf("encode %s %s: check identifiers: %w", t.TupleType(), p.rui, err)
	}
	if len(taken) > 0 {
		return NewDuplicateRuiError(p.rui, taken)
	}

	rows, err := tx.Run(ctx, p.statement())
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", t.TupleType(), p.rui, err)
	}

	switch len(rows) {
	case 1:
		return nil
	case 0:
		missing, err := missingRefs(ctx, tx, p.refs)
		if err != nil {
			return fmt.Errorf("encode %s %s: look up references: %w", t.TupleType(), p.rui, err)
		}
		return NewDanglingReferenceError(p.rui, missing)
	default:
		return NewAmbiguousReferenceError(p.rui, len(rows))
	}
}

// EncodeStatement returns the statement Encode would run for t.
func EncodeStatement(t ir.Tuple) (q.Query, error) {
	p, err := planFor(t)
	if err != nil {
		return q.Query{}, err
	}
	return p.statement(), nil
}

// Explain renders the Cypher Encode would send for t.
func Explain(t ir.Tuple) (string, map[string]any, error) {
	stmt, err := EncodeStatement(t)
	if err != nil {
		return "", nil, err
	}
	return querycypher.Compile(stmt)
}

// planFor builds the write plan for one tuple. One case per variant; the
// edge set of each case is mirrored by the traversal in decode.go.
func planFor(t ir.Tuple) (*plan, error) {
	attrs, err := ir.AttributesOf(t)
	if err != nil {
		return nil, err
	}
	if t.ID() == nil {
		return nil, fmt.Errorf("encode %s: missing rui", t.TupleType())
	}

	var p *plan
	switch t.(type) {
	case ir.AN:
		p = newPlan(t, attrs, ir.CompRui, ir.CompStatus, ir.CompUnique)
		p.placeholder(ir.CompRuin, "npor", LabelNPoR)
	case ir.AR:
		p = newPlan(t, attrs, ir.CompRui, ir.CompStatus, ir.CompUnique, ir.CompRuio)
		p.placeholder(ir.CompRuir, "rpor", LabelRPoR)
	case ir.DI:
		p = newPlan(t, attrs, ir.CompRui, ir.CompT, ir.CompEventReason)
		p.ref(ir.CompRuit)
		p.ref(ir.CompRuid)
		p.ref(ir.CompRuia)
		p.temporal(ir.CompTa)
	case ir.DC:
		p = newPlan(t, attrs, ir.CompRui, ir.CompT, ir.CompEventReason, ir.CompEvent)
		p.ref(ir.CompRuit)
		p.ref(ir.CompRuid)
		p.ordered(ir.CompReplacements)
	case ir.F:
		p = newPlan(t, attrs, ir.CompRui, ir.CompC)
		p.ref(ir.CompRuitn)
	case ir.NtoN:
		p = newPlan(t, attrs, ir.CompRui, ir.CompPolarity)
		p.relation(ir.CompR)
		p.temporal(ir.CompTr)
		p.ordered(ir.CompP)
	case ir.NtoR:
		p = newPlan(t, attrs, ir.CompRui, ir.CompPolarity)
		p.ref(ir.CompRuin)
		p.ref(ir.CompRuir)
		p.relation(ir.CompR)
		p.temporal(ir.CompTr)
	case ir.NtoC:
		p = newPlan(t, attrs, ir.CompRui, ir.CompPolarity)
		p.relation(ir.CompR)
		p.ref(ir.CompRuin)
		p.leaf(ir.CompCode, ir.CompRuics, "code_node", LabelCode)
		p.temporal(ir.CompTr)
	case ir.NtoDE:
		p = newPlan(t, attrs, ir.CompRui, ir.CompPolarity)
		p.ref(ir.CompRuin)
		p.leaf(ir.CompData, ir.CompRuidt, "data_node", LabelData)
	case ir.NtoLackR:
		p = newPlan(t, attrs, ir.CompRui)
		p.ref(ir.CompRuin)
		p.ref(ir.CompRuir)
		p.relation(ir.CompR)
		p.temporal(ir.CompTr)
	default:
		return nil, fmt.Errorf("unsupported tuple type: %T", t)
	}

	if p.err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", t.TupleType(), p.rui, p.err)
	}
	return p, nil
}

// plan collects the clauses of one encode statement in phases:
// matches, owner, placeholders, merges, links.
type plan struct {
	attrs   ir.Attributes
	owner   string
	rui     string
	node    q.NodePattern
	matches []q.Clause
	creates []q.Clause
	merges  []q.Clause
	links   []q.Clause
	refs    []string // identifiers that must already exist
	claims  []string // identifiers this tuple introduces
	err     error
}

func newPlan(t ir.Tuple, attrs ir.Attributes, props ...ir.Component) *plan {
	p := &plan{
		attrs: attrs,
		owner: ownerName(t.TupleType()),
		rui:   ir.RuiString(t.ID()),
	}
	p.node = q.Node(p.owner, variantLabel(t.TupleType()), LabelTuple, LabelIdentified)
	p.claims = append(p.claims, p.rui)
	for _, c := range props {
		if v, ok := p.stored(c); ok {
			p.node = p.node.With(string(c), q.P(string(c), v))
		}
	}
	return p
}

// stored returns the persisted form of component c, if present.
func (p *plan) stored(c ir.Component) (any, bool) {
	v, ok := p.attrs[c]
	if !ok {
		return nil, false
	}
	s, err := StoredValue(v)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("component %q: %w", c, err)
		}
		return nil, false
	}
	return s, true
}

func (p *plan) link(rel q.RelPattern, target string) {
	p.links = append(p.links, q.Create(q.Link(q.Ref(p.owner), rel, q.Ref(target))))
}

func (p *plan) matchRui(alias, rui string) {
	p.matches = append(p.matches, q.Match(q.Node(alias, LabelIdentified).With(keyRui, q.P(alias, rui))))
	p.refs = append(p.refs, rui)
}

// ref links the owner to an existing node matched by identifier.
func (p *plan) ref(c ir.Component) {
	v, ok := p.stored(c)
	if !ok {
		return
	}
	alias := string(c)
	p.matchRui(alias, v.(string))
	p.link(edge(c), alias)
}

// placeholder creates a companion referent node and links the owner to it.
func (p *plan) placeholder(c ir.Component, alias string, label q.Label) {
	v, ok := p.stored(c)
	if !ok {
		return
	}
	p.creates = append(p.creates, q.Create(q.Node(alias, label, LabelIdentified).With(keyRui, q.P(string(c), v))))
	p.claims = append(p.claims, v.(string))
	p.link(edge(c), alias)
}

// temporal links a temporal reference. Identifier-backed references must
// exist; calendar values are merged by value.
func (p *plan) temporal(c ir.Component) {
	v, ok := p.attrs[c]
	if !ok {
		return
	}
	ref := v.(ir.TempRefValue).Ref
	alias := string(c)
	if ref.IsCalendar() {
		p.merges = append(p.merges, q.Merge(q.Node(alias, LabelTemporal, LabelIdentified).With(keyRui, q.P(alias, ref.String()))))
	} else {
		p.matchRui(alias, ref.String())
	}
	p.link(edge(c), alias)
}

// relation links a relation reference, merged by URI.
func (p *plan) relation(c ir.Component) {
	v, ok := p.stored(c)
	if !ok {
		return
	}
	alias := string(c)
	p.merges = append(p.merges, q.Merge(q.Node(alias, LabelRelation).With(keyURI, q.P(alias, v))))
	p.link(edge(c), alias)
}

// ordered links every list element with its zero-based position stored on
// the edge under the component name.
func (p *plan) ordered(c ir.Component) {
	v, ok := p.attrs[c]
	if !ok {
		return
	}
	for i, r := range v.(ir.IDListValue) {
		alias := fmt.Sprintf("%s_%d", c, i)
		p.matchRui(alias, ir.RuiString(r))
		p.link(edge(c).With(string(c), q.Literal{Value: i}), alias)
	}
}

// leaf links a content-addressed node shared by every tuple with the same
// (type, content). The MERGE is keyed by the digest alone, which the
// storage layer constrains to be unique.
func (p *plan) leaf(content, typ ir.Component, alias string, label q.Label) {
	_, hasContent := p.attrs[content]
	_, hasType := p.attrs[typ]
	if !hasContent && !hasType {
		return
	}

	var typeRui ir.Rui
	if hasType {
		typeRui = p.attrs[typ].(ir.IDValue).Rui
	}

	var stored any = ""
	var digest string
	var err error
	switch v := p.attrs[content].(type) {
	case ir.TextValue:
		stored = string(v)
		digest, err = ir.CodeDigest(typeRui, string(v))
	case ir.BytesValue:
		stored = base64.StdEncoding.EncodeToString(v)
		digest, err = ir.DataDigest(typeRui, v)
	case nil:
		if label == LabelData {
			digest, err = ir.DataDigest(typeRui, nil)
		} else {
			digest, err = ir.CodeDigest(typeRui, "")
		}
	default:
		err = fmt.Errorf("component %q: unexpected kind %s", content, v.Kind())
	}
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return
	}

	if hasType {
		p.matchRui(string(typ), ir.RuiString(typeRui))
	}
	p.merges = append(p.merges, q.Atomic{
		Mode:     q.ModeMerge,
		Pattern:  q.Node(alias, label).With(keyDigest, q.P(string(content)+"_digest", digest)),
		OnCreate: []q.Assignment{{Var: alias, Key: string(content), Value: q.P(string(content), stored)}},
	})
	if hasType {
		p.merges = append(p.merges, q.Merge(q.Link(q.Ref(alias), edge(typ), q.Ref(string(typ)))))
	}
	p.link(edge(content), alias)
}

func (p *plan) statement() q.Query {
	clauses := make([]q.Clause, 0, len(p.matches)+len(p.creates)+len(p.merges)+len(p.links)+2)
	clauses = append(clauses, p.matches...)
	clauses = append(clauses, q.Create(p.node))
	clauses = append(clauses, p.creates...)
	clauses = append(clauses, p.merges...)
	clauses = append(clauses, p.links...)
	clauses = append(clauses, q.Return{Items: []q.Projection{q.Item(p.owner, keyRui, keyRui)}})
	return q.Query{Clauses: clauses}
}

// missingRefs returns the referenced identifiers no node carries.
func missingRefs(ctx context.Context, tx graph.Tx, refs []string) ([]string, error) {
	return scanRuis(ctx, tx, refs, false)
}

// existingRuis returns the identifiers some node already carries.
func existingRuis(ctx context.Context, tx graph.Tx, ruis []string) ([]string, error) {
	return scanRuis(ctx, tx, ruis, true)
}

func scanRuis(ctx context.Context, tx graph.Tx, ruis []string, present bool) ([]string, error) {
	out := []string{}
	seen := map[string]bool{}
	for _, rui := range ruis {
		if seen[rui] {
			continue
		}
		seen[rui] = true
		rows, err := tx.Run(ctx, labelsStatement(rui))
		if err != nil {
			return nil, err
		}
		if (len(rows) > 0) == present {
			out = append(out, rui)
		}
	}
	return out, nil
}
