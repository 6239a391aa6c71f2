package sqlgraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	q "github.com/mcwdsi/rt2n4j/internal/queryir"
)

type node struct {
	id     int64
	labels []string
	props  map[string]any
}

func (n *node) hasLabel(l string) bool {
	for _, have := range n.labels {
		if have == l {
			return true
		}
	}
	return false
}

type relationship struct {
	id    int64
	typ   string
	src   int64
	dst   int64
	props map[string]any
}

// row binds variable names to *node, *relationship, or nil for an
// unmatched optional pattern.
type row map[string]any

func (r row) with(name string, v any) row {
	if name == "" {
		return r
	}
	out := make(row, len(r)+1)
	for k, val := range r {
		out[k] = val
	}
	out[name] = v
	return out
}

// executor runs one statement against the tables of an open transaction.
// Clauses are applied in order to a stream of rows, starting from a single
// empty row, the way Cypher evaluates a query.
type executor struct {
	tx    *sql.Tx
	nodes map[int64]*node
}

func newExecutor(tx *sql.Tx) *executor {
	return &executor{tx: tx, nodes: map[int64]*node{}}
}

func (x *executor) run(ctx context.Context, stmt q.Statement) ([]graph.Record, error) {
	switch s := stmt.(type) {
	case q.Query:
		return x.query(ctx, s)
	case *q.Query:
		return x.query(ctx, *s)
	case q.Union:
		return x.union(ctx, s)
	case *q.Union:
		return x.union(ctx, *s)
	}
	return nil, fmt.Errorf("unsupported statement type: %T", stmt)
}

// union concatenates the parts and drops duplicate records.
func (x *executor) union(ctx context.Context, u q.Union) ([]graph.Record, error) {
	var out []graph.Record
	seen := map[string]bool{}
	for i, part := range u.Parts {
		records, err := x.query(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("union part %d: %w", i, err)
		}
		for _, rec := range records {
			key, err := recordKey(rec)
			if err != nil {
				return nil, err
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, rec)
		}
	}
	return out, nil
}

func (x *executor) query(ctx context.Context, qry q.Query) ([]graph.Record, error) {
	rows := []row{{}}
	for i, c := range qry.Clauses {
		var err error
		switch cl := c.(type) {
		case q.Atomic:
			rows, err = x.atomic(ctx, rows, cl)
		case *q.Atomic:
			rows, err = x.atomic(ctx, rows, *cl)
		case q.Return:
			return x.project(rows, cl)
		case *q.Return:
			return x.project(rows, *cl)
		default:
			err = fmt.Errorf("unsupported clause type: %T", c)
		}
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
	}
	return nil, nil
}

func (x *executor) atomic(ctx context.Context, rows []row, a q.Atomic) ([]row, error) {
	var out []row
	for _, r := range rows {
		var next []row
		var err error
		switch a.Mode {
		case q.ModeMatch, q.ModeOptionalMatch:
			next, err = x.match(ctx, r, a.Pattern)
			if err == nil && a.Where != nil {
				next, err = x.filter(next, a.Where)
			}
			if err == nil && len(next) == 0 && a.Mode == q.ModeOptionalMatch {
				next = []row{nullFill(r, a.Pattern)}
			}
		case q.ModeCreate:
			var created row
			created, err = x.create(ctx, r, a.Pattern)
			next = []row{created}
		case q.ModeMerge:
			next, err = x.merge(ctx, r, a)
		default:
			err = fmt.Errorf("invalid mode %d", int(a.Mode))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, next...)
	}
	return out, nil
}

func (x *executor) filter(rows []row, pred q.Predicate) ([]row, error) {
	var out []row
	for _, r := range rows {
		ok, err := x.holds(r, pred)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (x *executor) holds(r row, pred q.Predicate) (bool, error) {
	switch p := pred.(type) {
	case q.Equals:
		right, err := evalExpr(p.Right)
		if err != nil {
			return false, err
		}
		return equalValues(propOf(r, p.Left), right), nil
	case *q.Equals:
		return x.holds(r, *p)
	case q.NotNull:
		return propOf(r, p.Prop) != nil, nil
	case *q.NotNull:
		return x.holds(r, *p)
	case q.And:
		for _, sub := range p.Predicates {
			ok, err := x.holds(r, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *q.And:
		return x.holds(r, *p)
	}
	return false, fmt.Errorf("unsupported predicate type: %T", pred)
}

// nullFill binds every new name of p to nil.
func nullFill(r row, p q.Pattern) row {
	out := r
	bind := func(name string) {
		if name == "" {
			return
		}
		if _, ok := out[name]; !ok {
			out = out.with(name, nil)
		}
	}
	switch pat := derefPattern(p).(type) {
	case q.NodePattern:
		bind(pat.Name)
	case q.Path:
		bind(pat.Start.Name)
		for _, st := range pat.Steps {
			bind(st.Rel.Name)
			bind(st.Node.Name)
		}
	}
	return out
}

func derefPattern(p q.Pattern) q.Pattern {
	switch pat := p.(type) {
	case *q.NodePattern:
		return *pat
	case *q.Path:
		return *pat
	}
	return p
}

func (x *executor) match(ctx context.Context, r row, p q.Pattern) ([]row, error) {
	switch pat := derefPattern(p).(type) {
	case q.NodePattern:
		cands, err := x.nodeCandidates(ctx, r, pat)
		if err != nil {
			return nil, err
		}
		out := make([]row, 0, len(cands))
		for _, n := range cands {
			out = append(out, r.with(pat.Name, n))
		}
		return out, nil
	case q.Path:
		return x.matchPath(ctx, r, pat)
	}
	return nil, fmt.Errorf("unsupported pattern type: %T", p)
}

// anchored reports whether a node pattern can be resolved without a scan.
func anchored(r row, n q.NodePattern) bool {
	if v, ok := r[n.Name]; ok && n.Name != "" {
		return v != nil
	}
	_, byRui := n.Props["rui"]
	_, byDigest := n.Props["digest"]
	return byRui || byDigest
}

// orient reverses a single-step path whose far end is better anchored than
// its start, so lookups begin from an identifier instead of a label scan.
func orient(r row, p q.Path) q.Path {
	if len(p.Steps) != 1 || anchored(r, p.Start) || !anchored(r, p.Steps[0].Node) {
		return p
	}
	rel := p.Steps[0].Rel
	if rel.Direction == q.Outgoing {
		rel.Direction = q.Incoming
	} else {
		rel.Direction = q.Outgoing
	}
	return q.Path{Start: p.Steps[0].Node, Steps: []q.Step{{Rel: rel, Node: p.Start}}}
}

func (x *executor) matchPath(ctx context.Context, r row, p q.Path) ([]row, error) {
	p = orient(r, p)
	starts, err := x.nodeCandidates(ctx, r, p.Start)
	if err != nil {
		return nil, err
	}
	var out []row
	for _, s := range starts {
		if err := x.walk(ctx, r.with(p.Start.Name, s), s, p.Steps, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (x *executor) walk(ctx context.Context, r row, cur *node, steps []q.Step, out *[]row) error {
	if len(steps) == 0 {
		*out = append(*out, r)
		return nil
	}
	st := steps[0]

	want, err := evalProps(st.Rel.Props)
	if err != nil {
		return err
	}
	rels, err := x.relsFrom(ctx, cur.id, st.Rel)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		if !propsMatch(rel.props, want) {
			continue
		}
		otherID := rel.dst
		if st.Rel.Direction == q.Incoming {
			otherID = rel.src
		}
		other, err := x.loadNode(ctx, otherID)
		if err != nil {
			return err
		}
		ok, err := x.accepts(r, st.Node, other)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		next := r.with(st.Rel.Name, rel).with(st.Node.Name, other)
		if err := x.walk(ctx, next, other, steps[1:], out); err != nil {
			return err
		}
	}
	return nil
}

// accepts reports whether n satisfies the node pattern under row r.
func (x *executor) accepts(r row, p q.NodePattern, n *node) (bool, error) {
	if v, ok := r[p.Name]; ok && p.Name != "" {
		bound, _ := v.(*node)
		if bound == nil || bound.id != n.id {
			return false, nil
		}
	}
	want, err := evalProps(p.Props)
	if err != nil {
		return false, err
	}
	return nodeMatches(n, p.Labels, want), nil
}

func nodeMatches(n *node, labels []q.Label, want map[string]any) bool {
	for _, l := range labels {
		if !n.hasLabel(string(l)) {
			return false
		}
	}
	return propsMatch(n.props, want)
}

func propsMatch(have, want map[string]any) bool {
	for k, v := range want {
		if !equalValues(have[k], v) {
			return false
		}
	}
	return true
}

// nodeCandidates returns the nodes matching p, preferring the bound
// variable, then the rui and digest indexes, then a label scan.
func (x *executor) nodeCandidates(ctx context.Context, r row, p q.NodePattern) ([]*node, error) {
	if v, ok := r[p.Name]; ok && p.Name != "" {
		n, _ := v.(*node)
		if n == nil {
			return nil, nil
		}
		ok, err := x.accepts(r, p, n)
		if err != nil || !ok {
			return nil, err
		}
		return []*node{n}, nil
	}

	want, err := evalProps(p.Props)
	if err != nil {
		return nil, err
	}

	var query string
	var args []any
	if s, ok := want["rui"].(string); ok {
		query, args = "SELECT id FROM nodes WHERE rui = ? ORDER BY id", []any{s}
	} else if s, ok := want["digest"].(string); ok {
		query, args = "SELECT id FROM nodes WHERE digest = ? ORDER BY id", []any{s}
	} else if len(p.Labels) > 0 {
		query, args = "SELECT node_id FROM node_labels WHERE label = ? ORDER BY node_id", []any{string(p.Labels[0])}
	} else {
		query = "SELECT id FROM nodes ORDER BY id"
	}

	ids, err := x.scanIDs(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var out []*node
	for _, id := range ids {
		n, err := x.loadNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if nodeMatches(n, p.Labels, want) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (x *executor) scanIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := x.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan node id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (x *executor) loadNode(ctx context.Context, id int64) (*node, error) {
	if n, ok := x.nodes[id]; ok {
		return n, nil
	}

	var raw string
	if err := x.tx.QueryRowContext(ctx, "SELECT props FROM nodes WHERE id = ?", id).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load node %d: %w", id, err)
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, fmt.Errorf("load node %d: %w", id, err)
	}

	rows, err := x.tx.QueryContext(ctx, "SELECT label FROM node_labels WHERE node_id = ? ORDER BY label", id)
	if err != nil {
		return nil, fmt.Errorf("load labels %d: %w", id, err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	n := &node{id: id, labels: labels, props: props}
	x.nodes[id] = n
	return n, nil
}

func (x *executor) relsFrom(ctx context.Context, id int64, rel q.RelPattern) ([]*relationship, error) {
	col := "src"
	if rel.Direction == q.Incoming {
		col = "dst"
	}
	query := "SELECT id, type, src, dst, props FROM edges WHERE " + col + " = ?"
	args := []any{id}
	if rel.Type != "" {
		query += " AND type = ?"
		args = append(args, string(rel.Type))
	}
	query += " ORDER BY id"

	rows, err := x.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var out []*relationship
	for rows.Next() {
		var e relationship
		var raw string
		if err := rows.Scan(&e.id, &e.typ, &e.src, &e.dst, &raw); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if e.props, err = decodeProps(raw); err != nil {
			return nil, fmt.Errorf("edge %d: %w", e.id, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (x *executor) create(ctx context.Context, r row, p q.Pattern) (row, error) {
	switch pat := derefPattern(p).(type) {
	case q.NodePattern:
		_, out, err := x.ensureNode(ctx, r, pat)
		return out, err
	case q.Path:
		cur, out, err := x.ensureNode(ctx, r, pat.Start)
		if err != nil {
			return nil, err
		}
		for _, st := range pat.Steps {
			var next *node
			next, out, err = x.ensureNode(ctx, out, st.Node)
			if err != nil {
				return nil, err
			}
			src, dst := cur, next
			if st.Rel.Direction == q.Incoming {
				src, dst = next, cur
			}
			rel, err := x.createRel(ctx, st.Rel, src.id, dst.id)
			if err != nil {
				return nil, err
			}
			out = out.with(st.Rel.Name, rel)
			cur = next
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported pattern type: %T", p)
}

// ensureNode returns the node bound to p's name, or creates one.
func (x *executor) ensureNode(ctx context.Context, r row, p q.NodePattern) (*node, row, error) {
	if v, ok := r[p.Name]; ok && p.Name != "" {
		n, _ := v.(*node)
		if n == nil {
			return nil, nil, fmt.Errorf("cannot write through null variable %q", p.Name)
		}
		return n, r, nil
	}
	props, err := evalProps(p.Props)
	if err != nil {
		return nil, nil, err
	}
	n, err := x.createNode(ctx, p.Labels, props)
	if err != nil {
		return nil, nil, err
	}
	return n, r.with(p.Name, n), nil
}

func (x *executor) merge(ctx context.Context, r row, a q.Atomic) ([]row, error) {
	found, err := x.match(ctx, r, a.Pattern)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return found, nil
	}

	created, err := x.create(ctx, r, a.Pattern)
	if err != nil {
		return nil, err
	}
	for _, as := range a.OnCreate {
		n, _ := created[as.Var].(*node)
		if n == nil {
			return nil, fmt.Errorf("ON CREATE SET on non-node variable %q", as.Var)
		}
		v, err := evalExpr(as.Value)
		if err != nil {
			return nil, err
		}
		n.props[as.Key] = v
		if err := x.saveNode(ctx, n); err != nil {
			return nil, err
		}
	}
	return []row{created}, nil
}

func (x *executor) createNode(ctx context.Context, labels []q.Label, props map[string]any) (*node, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode props: %w", err)
	}
	res, err := x.tx.ExecContext(ctx,
		"INSERT INTO nodes (rui, digest, props) VALUES (?, ?, ?)",
		indexed(props, "rui"), indexed(props, "digest"), string(raw))
	if err != nil {
		return nil, wrapConstraint("create node", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create node: %w", err)
	}

	n := &node{id: id, props: props}
	seen := map[string]bool{}
	for _, l := range labels {
		if seen[string(l)] {
			continue
		}
		seen[string(l)] = true
		if _, err := x.tx.ExecContext(ctx, "INSERT INTO node_labels (node_id, label) VALUES (?, ?)", id, string(l)); err != nil {
			return nil, fmt.Errorf("create label: %w", err)
		}
		n.labels = append(n.labels, string(l))
	}
	sort.Strings(n.labels)
	x.nodes[id] = n
	return n, nil
}

func (x *executor) saveNode(ctx context.Context, n *node) error {
	raw, err := json.Marshal(n.props)
	if err != nil {
		return fmt.Errorf("encode props: %w", err)
	}
	_, err = x.tx.ExecContext(ctx,
		"UPDATE nodes SET rui = ?, digest = ?, props = ? WHERE id = ?",
		indexed(n.props, "rui"), indexed(n.props, "digest"), string(raw), n.id)
	if err != nil {
		return wrapConstraint("update node", err)
	}
	return nil
}

func (x *executor) createRel(ctx context.Context, p q.RelPattern, src, dst int64) (*relationship, error) {
	props, err := evalProps(p.Props)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode props: %w", err)
	}
	res, err := x.tx.ExecContext(ctx,
		"INSERT INTO edges (type, src, dst, props) VALUES (?, ?, ?, ?)",
		string(p.Type), src, dst, string(raw))
	if err != nil {
		return nil, wrapConstraint("create relationship", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	return &relationship{id: id, typ: string(p.Type), src: src, dst: dst, props: props}, nil
}

// indexed returns a string property for an indexed column, or NULL.
func indexed(props map[string]any, key string) any {
	if s, ok := props[key].(string); ok {
		return s
	}
	return nil
}

func wrapConstraint(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", op, graph.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (x *executor) project(rows []row, ret q.Return) ([]graph.Record, error) {
	out := make([]graph.Record, 0, len(rows))
	seen := map[string]bool{}
	for _, r := range rows {
		rec := make(graph.Record, len(ret.Items))
		for _, item := range ret.Items {
			switch e := item.Expr.(type) {
			case q.Prop:
				rec[item.Alias] = propOf(r, e)
			case q.LabelsOf:
				rec[item.Alias] = labelsOf(r, e.Var)
			default:
				return nil, fmt.Errorf("unsupported projection type: %T", item.Expr)
			}
		}
		if ret.Distinct {
			key, err := recordKey(rec)
			if err != nil {
				return nil, err
			}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, rec)
	}

	if len(ret.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, alias := range ret.OrderBy {
				if c := compareValues(out[i][alias], out[j][alias]); c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	return out, nil
}

func propOf(r row, p q.Prop) any {
	switch v := r[p.Var].(type) {
	case *node:
		if v != nil {
			return v.props[p.Key]
		}
	case *relationship:
		if v != nil {
			return v.props[p.Key]
		}
	}
	return nil
}

func labelsOf(r row, name string) any {
	n, _ := r[name].(*node)
	if n == nil {
		return nil
	}
	out := make([]any, len(n.labels))
	for i, l := range n.labels {
		out[i] = l
	}
	return out
}

func recordKey(rec graph.Record) (string, error) {
	// encoding/json sorts map keys.
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("record key: %w", err)
	}
	return string(raw), nil
}

func evalExpr(e q.Expr) (any, error) {
	switch v := e.(type) {
	case q.Param:
		return normalize(v.Value), nil
	case *q.Param:
		return normalize(v.Value), nil
	case q.Literal:
		return normalize(v.Value), nil
	case *q.Literal:
		return normalize(v.Value), nil
	}
	return nil, fmt.Errorf("unsupported expression type: %T", e)
}

func evalProps(props q.Props) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, e := range props {
		v, err := evalExpr(e)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func decodeProps(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	if props == nil {
		props = map[string]any{}
	}
	for k, v := range props {
		props[k] = normalize(v)
	}
	return props, nil
}
