package queryir

// Statement is a complete query that can be compiled or executed.
//
// This is a sealed interface - only Query and Union implement it.
type Statement interface {
	statementNode()
}

// Clause is one step of a compound query.
//
// This is a sealed interface - only Atomic and Return implement it.
type Clause interface {
	clauseNode()
}

// Pattern is a graph pattern used by an atomic operation.
//
// This is a sealed interface - only NodePattern and Path implement it.
type Pattern interface {
	patternNode()
}

// Expr is a property value inside a pattern, predicate or assignment.
//
// This is a sealed interface - only Param and Literal implement it.
type Expr interface {
	exprNode()
}

// Projectable is an expression that can appear in a RETURN item.
//
// This is a sealed interface - only Prop and LabelsOf implement it.
type Projectable interface {
	projectableNode()
}

// Predicate is a filter condition attached to a match.
//
// This is a sealed interface - only Equals, NotNull and And implement it.
type Predicate interface {
	predicateNode()
}

// Label is a node label or relationship type. Labels are schema vocabulary:
// they are interpolated into query text and must be plain identifiers.
type Label string

// Mode is the mode of an atomic operation.
type Mode int

const (
	// ModeMatch requires the pattern to exist.
	ModeMatch Mode = iota + 1
	// ModeOptionalMatch binds nulls when the pattern does not exist.
	ModeOptionalMatch
	// ModeMerge matches the pattern or creates it.
	ModeMerge
	// ModeCreate always inserts the pattern.
	ModeCreate
)

// String returns the clause keyword for the mode.
func (m Mode) String() string {
	switch m {
	case ModeMatch:
		return "MATCH"
	case ModeOptionalMatch:
		return "OPTIONAL MATCH"
	case ModeMerge:
		return "MERGE"
	case ModeCreate:
		return "CREATE"
	default:
		return "UNKNOWN"
	}
}

// IsMatch reports whether the mode only reads.
func (m Mode) IsMatch() bool {
	return m == ModeMatch || m == ModeOptionalMatch
}

// Direction is the direction of a relationship relative to the pattern
// reading order.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// Param is a bound parameter. Values are always passed separately from the
// query text.
//
// Allowed value types: string, bool, int64, float64.
type Param struct {
	Name  string
	Value any
}

func (Param) exprNode() {}

// Literal is a trusted constant rendered into the query text.
// Only integers and booleans are allowed (ordered-edge positions).
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// Props maps property keys to values.
type Props map[string]Expr

// NodePattern matches or creates a single node.
//
// A NodePattern with only a Name refers to a node bound by an earlier
// pattern.
type NodePattern struct {
	Name   string
	Labels []Label
	Props  Props
}

func (NodePattern) patternNode() {}

// RelPattern is one relationship in a path.
// An empty Type matches any relationship type (match modes only).
type RelPattern struct {
	Name      string
	Type      Label
	Direction Direction
	Props     Props
}

// Step is a relationship followed by the node it leads to.
type Step struct {
	Rel  RelPattern
	Node NodePattern
}

// Path is a start node followed by one or more steps.
type Path struct {
	Start NodePattern
	Steps []Step
}

func (Path) patternNode() {}

// Assignment sets a property on a bound variable (MERGE ... ON CREATE SET).
type Assignment struct {
	Var   string
	Key   string
	Value Expr
}

// Atomic pairs a mode with one pattern.
//
// Where is only allowed on match modes. OnCreate is only allowed on merge.
type Atomic struct {
	Mode     Mode
	Pattern  Pattern
	Where    Predicate
	OnCreate []Assignment
}

func (Atomic) clauseNode() {}

// Prop reads one property of a bound variable.
type Prop struct {
	Var string
	Key string
}

func (Prop) projectableNode() {}

// LabelsOf returns the label list of a bound node.
type LabelsOf struct {
	Var string
}

func (LabelsOf) projectableNode() {}

// Projection is one RETURN item.
type Projection struct {
	Expr  Projectable
	Alias string
}

// Return projects rows. It must be the last clause of a query.
// OrderBy lists aliases from Items.
type Return struct {
	Items    []Projection
	Distinct bool
	OrderBy  []string
}

func (Return) clauseNode() {}

// Query is a compound operation: atomic operations in order, optionally
// ending with a Return. Later clauses may refer to names bound by earlier
// ones.
type Query struct {
	Clauses []Clause
}

func (Query) statementNode() {}

// Union combines queries with identical projections and removes duplicate
// rows.
type Union struct {
	Parts []Query
}

func (Union) statementNode() {}

// Equals compares a property with a value.
type Equals struct {
	Left  Prop
	Right Expr
}

func (Equals) predicateNode() {}

// NotNull holds when the property is set.
type NotNull struct {
	Prop Prop
}

func (NotNull) predicateNode() {}

// And holds when all predicates hold.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
