package mapper

import (
	"context"
	"fmt"
	"sort"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	q "github.com/mcwdsi/rt2n4j/internal/queryir"
)

const posSuffix = "_pos"

// Decode reads the tuple stored under rui.
//
// Returns NotFound if no node carries rui and NotTuple if the node is a
// placeholder, temporal region, or other non-tuple node.
func Decode(ctx context.Context, tx graph.Tx, rui ir.Rui) (ir.Tuple, error) {
	if tx == nil {
		return nil, ErrTransactionNotSet
	}
	id := ir.RuiString(rui)

	tt, err := ResolveType(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	tr := traversalFor(tt, id)
	rows, err := tx.Run(ctx, tr.statement())
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", tt, id, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError(id)
	}

	attrs, err := foldRows(rows, tr.ordered)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", tt, id, err)
	}
	return ir.Build(tt, attrs)
}

// ResolveType returns the tuple type of the node carrying rui.
func ResolveType(ctx context.Context, tx graph.Tx, rui string) (ir.TupleType, error) {
	if tx == nil {
		return "", ErrTransactionNotSet
	}
	rows, err := tx.Run(ctx, labelsStatement(rui))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rui, err)
	}
	if len(rows) == 0 {
		return "", NewNotFoundError(rui)
	}

	var first []string
	for i, row := range rows {
		labels, err := row.Strings("labels")
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", rui, err)
		}
		if i == 0 {
			first = labels
		}
		if tt, ok := variantOf(labels); ok {
			return tt, nil
		}
	}
	return "", NewNotTupleError(rui, first)
}

// labelsStatement looks up the labels of every node carrying rui.
func labelsStatement(rui string) q.Query {
	return q.Query{Clauses: []q.Clause{
		q.Match(q.Node("node", LabelIdentified).With(keyRui, q.P(keyRui, rui))),
		q.Return{Items: []q.Projection{{Expr: q.LabelsOf{Var: "node"}, Alias: "labels"}}},
	}}
}

// traversal reads one tuple back: a MATCH on the owner followed by one
// OPTIONAL MATCH per link, so absent links come back as nulls.
type traversal struct {
	owner   string
	clauses []q.Clause
	items   []q.Projection
	ordered []ir.Component
}

func newTraversal(tt ir.TupleType, rui string, props ...ir.Component) *traversal {
	t := &traversal{owner: ownerName(tt)}
	t.clauses = append(t.clauses, q.Match(q.Node(t.owner, variantLabel(tt), LabelIdentified).With(keyRui, q.P(keyRui, rui))))
	for _, c := range props {
		t.items = append(t.items, q.Item(t.owner, string(c), string(c)))
	}
	return t
}

func (t *traversal) link(c ir.Component, key string) {
	alias := string(c)
	t.clauses = append(t.clauses, q.OptionalMatch(q.Link(q.Ref(t.owner), edge(c), q.Node(alias))))
	t.items = append(t.items, q.Item(alias, key, string(c)))
}

func (t *traversal) orderedLink(c ir.Component) {
	alias := string(c)
	rel := alias + "_rel"
	t.clauses = append(t.clauses, q.OptionalMatch(q.Link(q.Ref(t.owner), edge(c).As(rel), q.Node(alias))))
	t.items = append(t.items,
		q.Item(alias, keyRui, string(c)),
		q.Item(rel, string(c), string(c)+posSuffix),
	)
	t.ordered = append(t.ordered, c)
}

// leaf reads a content node and, separately, the type it points at.
func (t *traversal) leaf(content, typ ir.Component, alias string) {
	t.clauses = append(t.clauses,
		q.OptionalMatch(q.Link(q.Ref(t.owner), edge(content), q.Node(alias))),
		q.OptionalMatch(q.Link(q.Ref(alias), edge(typ), q.Node(string(typ)))),
	)
	t.items = append(t.items,
		q.Item(alias, string(content), string(content)),
		q.Item(string(typ), keyRui, string(typ)),
	)
}

func (t *traversal) statement() q.Query {
	clauses := append([]q.Clause{}, t.clauses...)
	clauses = append(clauses, q.Return{Items: t.items})
	return q.Query{Clauses: clauses}
}

// traversalFor mirrors planFor: every edge written there is read here.
func traversalFor(tt ir.TupleType, rui string) *traversal {
	var t *traversal
	switch tt {
	case ir.TypeAN:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompStatus, ir.CompUnique)
		t.link(ir.CompRuin, keyRui)
	case ir.TypeAR:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompStatus, ir.CompUnique, ir.CompRuio)
		t.link(ir.CompRuir, keyRui)
	case ir.TypeDI:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompT, ir.CompEventReason)
		t.link(ir.CompRuit, keyRui)
		t.link(ir.CompRuid, keyRui)
		t.link(ir.CompRuia, keyRui)
		t.link(ir.CompTa, keyRui)
	case ir.TypeDC:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompT, ir.CompEventReason, ir.CompEvent)
		t.link(ir.CompRuit, keyRui)
		t.link(ir.CompRuid, keyRui)
		t.orderedLink(ir.CompReplacements)
	case ir.TypeF:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompC)
		t.link(ir.CompRuitn, keyRui)
	case ir.TypeNtoN:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompPolarity)
		t.link(ir.CompR, keyURI)
		t.link(ir.CompTr, keyRui)
		t.orderedLink(ir.CompP)
	case ir.TypeNtoR:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompPolarity)
		t.link(ir.CompRuin, keyRui)
		t.link(ir.CompRuir, keyRui)
		t.link(ir.CompR, keyURI)
		t.link(ir.CompTr, keyRui)
	case ir.TypeNtoC:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompPolarity)
		t.link(ir.CompR, keyURI)
		t.link(ir.CompRuin, keyRui)
		t.leaf(ir.CompCode, ir.CompRuics, "code_node")
		t.link(ir.CompTr, keyRui)
	case ir.TypeNtoDE:
		t = newTraversal(tt, rui, ir.CompRui, ir.CompPolarity)
		t.link(ir.CompRuin, keyRui)
		t.leaf(ir.CompData, ir.CompRuidt, "data_node")
	default:
		t = newTraversal(tt, rui, ir.CompRui)
		t.link(ir.CompRuin, keyRui)
		t.link(ir.CompRuir, keyRui)
		t.link(ir.CompR, keyURI)
		t.link(ir.CompTr, keyRui)
	}
	return t
}

// foldRows collapses traversal rows into one field set. Ordered links fan
// out to one row per element; they are gathered and sorted by position.
func foldRows(rows []graph.Record, ordered []ir.Component) (ir.Attributes, error) {
	skip := map[string]bool{}
	for _, c := range ordered {
		skip[string(c)] = true
		skip[string(c)+posSuffix] = true
	}

	fields := map[string]any{}
	for k, v := range rows[0] {
		if !skip[k] {
			fields[k] = v
		}
	}

	for _, c := range ordered {
		byPos := map[int64]any{}
		for _, row := range rows {
			val := row[string(c)]
			if val == nil {
				continue
			}
			pos, ok, err := row.Int(string(c) + posSuffix)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("component %q: element without position", c)
			}
			byPos[pos] = val
		}
		if len(byPos) == 0 {
			continue
		}
		positions := make([]int64, 0, len(byPos))
		for pos := range byPos {
			positions = append(positions, pos)
		}
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		list := make([]any, len(positions))
		for i, pos := range positions {
			list[i] = byPos[pos]
		}
		fields[string(c)] = list
	}

	return DecodeFields(fields)
}
