package mapper

import (
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/queryir"
)

// Structural node labels. Tuple nodes carry their variant label plus
// LabelTuple. Every node that carries a rui (tuples, placeholders and
// temporal nodes) also carries LabelIdentified, which the backends index
// and constrain to one node per rui.
const (
	LabelIdentified queryir.Label = "ident"
	LabelTuple      queryir.Label = "tuple"
	LabelNPoR     queryir.Label = "N"
	LabelRPoR     queryir.Label = "R"
	LabelTemporal queryir.Label = "temp"
	LabelRelation queryir.Label = "rel"
	LabelData     queryir.Label = "data"
	LabelCode     queryir.Label = "code"
)

// Property keys that are not tuple components.
const (
	keyRui    = "rui"
	keyURI    = "uri"
	keyDigest = "digest"
)

func variantLabel(tt ir.TupleType) queryir.Label {
	return queryir.Label(tt)
}

// edge returns the relationship type for a component. Edge labels are the
// component names.
func edge(c ir.Component) queryir.RelPattern {
	return queryir.Rel(queryir.Label(c))
}

// ownerName is the variable the tuple's own node is bound to.
func ownerName(tt ir.TupleType) string {
	switch tt {
	case ir.TypeAN:
		return "an"
	case ir.TypeAR:
		return "ar"
	case ir.TypeDI:
		return "di"
	case ir.TypeDC:
		return "dc"
	case ir.TypeF:
		return "f"
	case ir.TypeNtoN:
		return "nton"
	case ir.TypeNtoR:
		return "ntor"
	case ir.TypeNtoC:
		return "ntoc"
	case ir.TypeNtoDE:
		return "ntode"
	default:
		return "ntolackr"
	}
}

// variantOf returns the tuple type named by a label set, if any.
func variantOf(labels []string) (ir.TupleType, bool) {
	isTuple := false
	var tt ir.TupleType
	found := false
	for _, l := range labels {
		if l == string(LabelTuple) {
			isTuple = true
			continue
		}
		if parsed, err := ir.ParseTupleType(l); err == nil {
			tt, found = parsed, true
		}
	}
	return tt, isTuple && found
}
