package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeLike mirrors the shape the tuple encoder produces.
func encodeLike() Query {
	return Query{Clauses: []Clause{
		Match(Node("ruit").With("rui", P("ruit", "r-1"))),
		Create(Node("di", "DI", "tuple").With("rui", P("rui", "r-2"))),
		Merge(Node("ta", "temp").With("rui", P("ta", "2024-01-01T00:00:00Z"))),
		Create(Link(Ref("di"), Rel("ruit"), Ref("ruit"))),
		Create(Link(Ref("di"), Rel("ta"), Ref("ta"))),
		Return{Items: []Projection{Item("di", "rui", "rui")}},
	}}
}

func TestValidate_EncodeShape(t *testing.T) {
	result := Validate(encodeLike())

	assert.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
	assert.NoError(t, result.Err())
}

func TestValidate_Pointers(t *testing.T) {
	q := encodeLike()
	q.Clauses[0] = &Atomic{Mode: ModeMatch, Pattern: &NodePattern{Name: "ruit", Props: Props{"rui": P("ruit", "r-1")}}}

	result := Validate(&q)
	assert.True(t, result.OK(), "errors: %v", result.Errors)
}

func TestValidate_UnboundReference(t *testing.T) {
	q := Query{Clauses: []Clause{
		Create(Node("an", "AN").With("rui", P("rui", "x"))),
		Create(Link(Ref("an"), Rel("ruin"), Ref("npor"))),
	}}

	result := Validate(q)

	require.False(t, result.OK())
	assert.Contains(t, result.Errors[0], `unbound variable "npor"`)
}

func TestValidate_UnboundInReturnAndWhere(t *testing.T) {
	q := Query{Clauses: []Clause{
		Match(Node("t", "tuple")).Filter(Eq("f", "rui", P("rui", "x"))),
		Return{Items: []Projection{Item("g", "rui", "rui")}},
	}}

	result := Validate(q)

	assert.Len(t, result.Errors, 2)
}

func TestValidate_MatchAfterUpdate(t *testing.T) {
	q := Query{Clauses: []Clause{
		Create(Node("a", "AN").With("rui", P("rui", "x"))),
		Match(Node("b").With("rui", P("ruin", "y"))),
	}}

	result := Validate(q)

	require.False(t, result.OK())
	assert.Contains(t, result.Errors[0], "after an updating clause")
}

func TestValidate_ReturnMustBeLast(t *testing.T) {
	q := Query{Clauses: []Clause{
		Match(Node("a", "AN")),
		Return{Items: []Projection{Item("a", "rui", "rui")}},
		Match(Node("b", "AR")),
	}}

	result := Validate(q)
	assert.False(t, result.OK())
}

func TestValidate_IdentifierInjection(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"label", Query{Clauses: []Clause{Match(Node("n", "AN) DETACH DELETE n //"))}}},
		{"rel type", Query{Clauses: []Clause{Match(Link(Node("a", "AN"), Rel("x]->() //"), Node("b")))}}},
		{"property key", Query{Clauses: []Clause{Match(Node("n", "AN").With("rui}) //", P("p", "v")))}}},
		{"param name", Query{Clauses: []Clause{Match(Node("n", "AN").With("rui", P("p x", "v")))}}},
		{"alias", Query{Clauses: []Clause{
			Match(Node("n", "AN")),
			Return{Items: []Projection{Item("n", "rui", "rui; DROP")}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Validate(tt.q).OK())
		})
	}
}

func TestValidate_ParamTypes(t *testing.T) {
	valid := []any{"s", true, int64(1), 1.5}
	for _, v := range valid {
		q := Query{Clauses: []Clause{Match(Node("n", "AN").With("k", P("k", v)))}}
		assert.True(t, Validate(q).OK(), "%T should be accepted", v)
	}

	invalid := []any{nil, 1, []string{"a"}, map[string]any{}}
	for _, v := range invalid {
		q := Query{Clauses: []Clause{Match(Node("n", "AN").With("k", P("k", v)))}}
		assert.False(t, Validate(q).OK(), "%T should be rejected", v)
	}
}

func TestValidate_ParamConflict(t *testing.T) {
	q := Query{Clauses: []Clause{
		Match(Node("a", "AN").With("rui", P("rui", "x"))),
		Match(Node("b", "AR").With("rui", P("rui", "y"))),
	}}
	assert.False(t, Validate(q).OK())

	q.Clauses[1] = Match(Node("b", "AR").With("rui", P("rui", "x")))
	assert.True(t, Validate(q).OK(), "reusing a name with the same value is fine")
}

func TestValidate_Literals(t *testing.T) {
	ok := Query{Clauses: []Clause{
		Match(Node("a", "NtoN")),
		Match(Node("b", "N")),
		Create(Link(Ref("a"), Rel("p").With("p", Literal{Value: 2}), Ref("b"))),
	}}
	assert.True(t, Validate(ok).OK())

	bad := Query{Clauses: []Clause{
		Match(Node("a", "NtoN").With("rui", Literal{Value: "x"})),
	}}
	assert.False(t, Validate(bad).OK(), "string literals must be params")
}

func TestValidate_ModeRestrictions(t *testing.T) {
	tests := []struct {
		name string
		c    Clause
	}{
		{"where on create", Create(Node("a", "AN")).Filter(Eq("a", "rui", P("r", "x")))},
		{"untyped rel in create", Create(Link(Node("a", "AN"), RelPattern{}, Node("b", "N")))},
		{"anonymous node in merge", Merge(Node("", "temp").With("rui", P("r", "x")))},
		{"on create set outside merge", Atomic{
			Mode:     ModeCreate,
			Pattern:  Node("a", "AN"),
			OnCreate: []Assignment{{Var: "a", Key: "k", Value: P("v", "x")}},
		}},
		{"invalid mode", Atomic{Mode: Mode(42), Pattern: Node("a")}},
		{"empty path", Match(Path{Start: Node("a", "AN")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Validate(Query{Clauses: []Clause{tt.c}}).OK())
		})
	}
}

func TestValidate_RedeclareInCreate(t *testing.T) {
	q := Query{Clauses: []Clause{
		Match(Node("a").With("rui", P("rui", "x"))),
		Create(Node("a", "AN")),
	}}
	assert.False(t, Validate(q).OK())
}

func TestValidate_FullScanWarning(t *testing.T) {
	q := Query{Clauses: []Clause{
		Match(Node("n")).Filter(NotNull{Prop: Prop{Var: "n", Key: "rui"}}),
		Return{Items: []Projection{Item("n", "rui", "rui")}, Distinct: true},
	}}

	result := Validate(q)

	assert.True(t, result.OK())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "matches every node")
}

func TestValidate_Return(t *testing.T) {
	dup := Query{Clauses: []Clause{
		Match(Node("n", "AN")),
		Return{Items: []Projection{Item("n", "rui", "x"), Item("n", "ar", "x")}},
	}}
	assert.False(t, Validate(dup).OK())

	badOrder := Query{Clauses: []Clause{
		Match(Node("n", "AN")),
		Return{Items: []Projection{Item("n", "rui", "rui")}, OrderBy: []string{"missing"}},
	}}
	assert.False(t, Validate(badOrder).OK())

	labels := Query{Clauses: []Clause{
		Match(Node("n").With("rui", P("rui", "x"))),
		Return{Items: []Projection{{Expr: LabelsOf{Var: "n"}, Alias: "labels"}}},
	}}
	assert.True(t, Validate(labels).OK())
}

func TestValidate_Union(t *testing.T) {
	part := func(label Label, alias string) Query {
		return Query{Clauses: []Clause{
			Match(Node("t", label)),
			Return{Items: []Projection{Item("t", "rui", alias)}, Distinct: true},
		}}
	}

	assert.True(t, Validate(Union{Parts: []Query{part("AN", "rui"), part("AR", "rui")}}).OK())
	assert.False(t, Validate(Union{Parts: []Query{part("AN", "rui"), part("AR", "id")}}).OK())
	assert.False(t, Validate(Union{}).OK())

	noReturn := Union{Parts: []Query{{Clauses: []Clause{Match(Node("t", "AN"))}}}}
	assert.False(t, Validate(noReturn).OK())
}

func TestValidate_Nil(t *testing.T) {
	assert.False(t, Validate(nil).OK())
	assert.False(t, Validate((*Query)(nil)).OK())
	assert.False(t, Validate(Query{}).OK())
}
