package queryir

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// validIdentifier matches names that may be interpolated into query text:
// variables, labels, relationship types, property keys, aliases and
// parameter names. Anything else would open an injection path.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationResult contains the problems found in a statement.
//
// Errors make a statement unusable: compilers and executors refuse it.
// Warnings flag legal but suspicious constructs (full node scans).
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the statement has no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the errors as a single error, or nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Errors, "; "))
}

// Validate checks a statement before it is compiled or executed:
//  1. Every name a clause refers to is bound earlier or in the same pattern
//  2. Labels, keys, variables, aliases and parameter names are identifiers
//  3. Parameter values are scalars; one parameter name has one value
//  4. No match follows an updating clause; RETURN comes last
//  5. Union branches return the same columns
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) ValidationResult {
	v := &validator{
		errors:   []string{},
		warnings: []string{},
		params:   map[string]any{},
	}
	v.validateStatement(stmt)

	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

type validator struct {
	errors   []string
	warnings []string
	params   map[string]any
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) checkIdent(kind, name string) {
	if !validIdentifier.MatchString(name) {
		v.addError("invalid %s %q", kind, name)
	}
}

func (v *validator) validateStatement(stmt Statement) {
	switch s := stmt.(type) {
	case Query:
		v.validateQuery(s)
	case *Query:
		if s == nil {
			v.addError("nil query")
			return
		}
		v.validateQuery(*s)
	case Union:
		v.validateUnion(s)
	case *Union:
		if s == nil {
			v.addError("nil union")
			return
		}
		v.validateUnion(*s)
	case nil:
		v.addError("nil statement")
	default:
		v.addError("unsupported statement type: %T", stmt)
	}
}

func (v *validator) validateUnion(u Union) {
	if len(u.Parts) == 0 {
		v.addError("union has no parts")
		return
	}
	var first []string
	for i, part := range u.Parts {
		aliases := v.validateQuery(part)
		if aliases == nil {
			v.addError("union part %d: missing RETURN", i)
			continue
		}
		if i == 0 {
			first = aliases
			continue
		}
		if !reflect.DeepEqual(first, aliases) {
			v.addError("union part %d: returns %v, expected %v", i, aliases, first)
		}
	}
}

// validateQuery returns the RETURN aliases, or nil when there is no RETURN.
func (v *validator) validateQuery(q Query) []string {
	if len(q.Clauses) == 0 {
		v.addError("empty query")
		return nil
	}

	bound := map[string]bool{}
	updated := false
	var aliases []string

	for i, c := range q.Clauses {
		switch cl := derefClause(c).(type) {
		case Atomic:
			if cl.Mode.IsMatch() && updated {
				v.addError("clause %d: %s after an updating clause", i, cl.Mode)
			}
			v.validateAtomic(i, cl, bound)
			if !cl.Mode.IsMatch() {
				updated = true
			}
		case Return:
			if i != len(q.Clauses)-1 {
				v.addError("clause %d: RETURN must be the last clause", i)
			}
			aliases = v.validateReturn(i, cl, bound)
		case nil:
			v.addError("clause %d: nil clause", i)
		default:
			v.addError("clause %d: unsupported clause type: %T", i, c)
		}
	}
	return aliases
}

func derefClause(c Clause) Clause {
	switch cl := c.(type) {
	case *Atomic:
		if cl == nil {
			return nil
		}
		return *cl
	case *Return:
		if cl == nil {
			return nil
		}
		return *cl
	}
	return c
}

func (v *validator) validateAtomic(i int, a Atomic, bound map[string]bool) {
	switch a.Mode {
	case ModeMatch, ModeOptionalMatch, ModeMerge, ModeCreate:
	default:
		v.addError("clause %d: invalid mode %d", i, int(a.Mode))
		return
	}

	switch p := a.Pattern.(type) {
	case NodePattern:
		v.validateNode(i, a.Mode, p, bound)
	case *NodePattern:
		v.validateNode(i, a.Mode, *p, bound)
	case Path:
		v.validatePath(i, a.Mode, p, bound)
	case *Path:
		v.validatePath(i, a.Mode, *p, bound)
	default:
		v.addError("clause %d: unsupported pattern type: %T", i, a.Pattern)
	}

	if a.Where != nil {
		if !a.Mode.IsMatch() {
			v.addError("clause %d: WHERE on %s", i, a.Mode)
		}
		v.validatePredicate(i, a.Where, bound)
	}

	if len(a.OnCreate) > 0 {
		if a.Mode != ModeMerge {
			v.addError("clause %d: ON CREATE SET on %s", i, a.Mode)
		}
		for _, as := range a.OnCreate {
			if !bound[as.Var] {
				v.addError("clause %d: ON CREATE SET of unbound variable %q", i, as.Var)
			}
			v.checkIdent("property key", as.Key)
			v.validateExpr(i, as.Value)
		}
	}
}

func (v *validator) validatePath(i int, mode Mode, p Path, bound map[string]bool) {
	if len(p.Steps) == 0 {
		v.addError("clause %d: path without relationships", i)
	}
	v.validateNode(i, mode, p.Start, bound)
	for _, step := range p.Steps {
		v.validateRel(i, mode, step.Rel, bound)
		v.validateNode(i, mode, step.Node, bound)
	}
}

func (v *validator) validateNode(i int, mode Mode, n NodePattern, bound map[string]bool) {
	for _, l := range n.Labels {
		v.checkIdent("label", string(l))
	}
	v.validateProps(i, n.Props)

	bare := len(n.Labels) == 0 && len(n.Props) == 0

	if n.Name == "" {
		if !mode.IsMatch() {
			v.addError("clause %d: anonymous node in %s", i, mode)
		}
		return
	}
	v.checkIdent("variable", n.Name)

	if bound[n.Name] {
		if !mode.IsMatch() && !bare {
			v.addError("clause %d: %s redeclares bound variable %q", i, mode, n.Name)
		}
		return
	}

	switch {
	case bare && !mode.IsMatch():
		// An unbound bare name in CREATE/MERGE silently creates an empty node.
		v.addError("clause %d: reference to unbound variable %q", i, n.Name)
	case bare:
		v.addWarning("clause %d: %q matches every node", i, n.Name)
	}
	bound[n.Name] = true
}

func (v *validator) validateRel(i int, mode Mode, r RelPattern, bound map[string]bool) {
	if r.Type == "" {
		if !mode.IsMatch() {
			v.addError("clause %d: relationship without type in %s", i, mode)
		}
	} else {
		v.checkIdent("relationship type", string(r.Type))
	}
	if r.Direction != Outgoing && r.Direction != Incoming {
		v.addError("clause %d: invalid direction %d", i, int(r.Direction))
	}
	v.validateProps(i, r.Props)

	if r.Name != "" {
		v.checkIdent("variable", r.Name)
		if bound[r.Name] {
			v.addError("clause %d: relationship variable %q already bound", i, r.Name)
		}
		bound[r.Name] = true
	}
}

func (v *validator) validateProps(i int, props Props) {
	for k, e := range props {
		v.checkIdent("property key", k)
		v.validateExpr(i, e)
	}
}

func (v *validator) validateExpr(i int, e Expr) {
	switch x := e.(type) {
	case Param:
		v.validateParam(i, x)
	case *Param:
		v.validateParam(i, *x)
	case Literal:
		switch x.Value.(type) {
		case int, int64, bool:
		default:
			v.addError("clause %d: literal of type %T", i, x.Value)
		}
	case nil:
		v.addError("clause %d: nil expression", i)
	default:
		v.addError("clause %d: unsupported expression type: %T", i, e)
	}
}

func (v *validator) validateParam(i int, p Param) {
	v.checkIdent("parameter", p.Name)
	switch p.Value.(type) {
	case string, bool, int64, float64:
	default:
		v.addError("clause %d: parameter %q has unsupported type %T", i, p.Name, p.Value)
		return
	}
	if prev, ok := v.params[p.Name]; ok && prev != p.Value {
		v.addError("clause %d: parameter %q bound to two values", i, p.Name)
		return
	}
	v.params[p.Name] = p.Value
}

func (v *validator) validatePredicate(i int, p Predicate, bound map[string]bool) {
	switch pred := p.(type) {
	case Equals:
		v.validatePropRef(i, pred.Left, bound)
		v.validateExpr(i, pred.Right)
	case *Equals:
		v.validatePredicate(i, *pred, bound)
	case NotNull:
		v.validatePropRef(i, pred.Prop, bound)
	case *NotNull:
		v.validatePredicate(i, *pred, bound)
	case And:
		if len(pred.Predicates) == 0 {
			v.addError("clause %d: empty AND", i)
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(i, sub, bound)
		}
	case *And:
		v.validatePredicate(i, *pred, bound)
	default:
		v.addError("clause %d: unsupported predicate type: %T", i, p)
	}
}

func (v *validator) validatePropRef(i int, p Prop, bound map[string]bool) {
	if !bound[p.Var] {
		v.addError("clause %d: reference to unbound variable %q", i, p.Var)
	}
	v.checkIdent("property key", p.Key)
}

func (v *validator) validateReturn(i int, r Return, bound map[string]bool) []string {
	if len(r.Items) == 0 {
		v.addError("clause %d: RETURN without items", i)
	}
	aliases := make([]string, 0, len(r.Items))
	seen := map[string]bool{}
	for _, item := range r.Items {
		switch x := item.Expr.(type) {
		case Prop:
			v.validatePropRef(i, x, bound)
		case LabelsOf:
			if !bound[x.Var] {
				v.addError("clause %d: reference to unbound variable %q", i, x.Var)
			}
		default:
			v.addError("clause %d: unsupported projection type: %T", i, item.Expr)
		}
		v.checkIdent("alias", item.Alias)
		if seen[item.Alias] {
			v.addError("clause %d: duplicate alias %q", i, item.Alias)
		}
		seen[item.Alias] = true
		aliases = append(aliases, item.Alias)
	}
	for _, key := range r.OrderBy {
		if !seen[key] {
			v.addError("clause %d: ORDER BY unknown alias %q", i, key)
		}
	}
	return aliases
}
