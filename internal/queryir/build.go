package queryir

// Node returns a node pattern with the given name and labels.
func Node(name string, labels ...Label) NodePattern {
	return NodePattern{Name: name, Labels: labels}
}

// Ref returns a bare reference to a bound node.
func Ref(name string) NodePattern {
	return NodePattern{Name: name}
}

// With returns a copy of n with one more property.
func (n NodePattern) With(key string, value Expr) NodePattern {
	props := make(Props, len(n.Props)+1)
	for k, v := range n.Props {
		props[k] = v
	}
	props[key] = value
	n.Props = props
	return n
}

// Rel returns an outgoing relationship pattern of the given type.
func Rel(typ Label) RelPattern {
	return RelPattern{Type: typ}
}

// With returns a copy of r with one more property.
func (r RelPattern) With(key string, value Expr) RelPattern {
	props := make(Props, len(r.Props)+1)
	for k, v := range r.Props {
		props[k] = v
	}
	props[key] = value
	r.Props = props
	return r
}

// As returns a copy of r bound to name.
func (r RelPattern) As(name string) RelPattern {
	r.Name = name
	return r
}

// Link returns the single-step path (from)-[rel]->(to).
func Link(from NodePattern, rel RelPattern, to NodePattern) Path {
	return Path{Start: from, Steps: []Step{{Rel: rel, Node: to}}}
}

// Then returns a copy of p extended by one step.
func (p Path) Then(rel RelPattern, to NodePattern) Path {
	steps := make([]Step, len(p.Steps), len(p.Steps)+1)
	copy(steps, p.Steps)
	p.Steps = append(steps, Step{Rel: rel, Node: to})
	return p
}

// Match returns a MATCH of p.
func Match(p Pattern) Atomic {
	return Atomic{Mode: ModeMatch, Pattern: p}
}

// OptionalMatch returns an OPTIONAL MATCH of p.
func OptionalMatch(p Pattern) Atomic {
	return Atomic{Mode: ModeOptionalMatch, Pattern: p}
}

// Merge returns a MERGE of p.
func Merge(p Pattern) Atomic {
	return Atomic{Mode: ModeMerge, Pattern: p}
}

// Create returns a CREATE of p.
func Create(p Pattern) Atomic {
	return Atomic{Mode: ModeCreate, Pattern: p}
}

// Filter returns a copy of a with pred as its WHERE condition.
func (a Atomic) Filter(pred Predicate) Atomic {
	a.Where = pred
	return a
}

// P is shorthand for a named bound parameter.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// Eq is shorthand for variable.key = value.
func Eq(variable, key string, value Expr) Equals {
	return Equals{Left: Prop{Var: variable, Key: key}, Right: value}
}

// AllOf combines predicates. It returns nil for none and the predicate
// itself for one.
func AllOf(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

// Item returns a RETURN item projecting variable.key as alias.
func Item(variable, key, alias string) Projection {
	return Projection{Expr: Prop{Var: variable, Key: key}, Alias: alias}
}
