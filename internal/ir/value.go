package ir

import (
	"fmt"
	"time"
)

// Kind is the semantic kind of an attribute value. The kind is known before a
// value is serialised into a query or compared after a round trip.
type Kind int

const (
	KindIdentifier Kind = iota + 1
	KindTimestamp
	KindBoolean
	KindFloat
	KindCode
	KindRelation
	KindBytes
	KindIDList
	KindTempRef
	KindText
)

var kindNames = map[Kind]string{
	KindIdentifier: "identifier",
	KindTimestamp:  "timestamp",
	KindBoolean:    "boolean",
	KindFloat:      "float",
	KindCode:       "code",
	KindRelation:   "relation",
	KindBytes:      "bytes",
	KindIDList:     "id-list",
	KindTempRef:    "temporal-ref",
	KindText:       "text",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a sealed interface over typed attribute values.
// Only the types in this file implement it.
type Value interface {
	Kind() Kind
	irValue()
}

// IDValue holds an identifier.
type IDValue struct{ Rui Rui }

// TimeValue holds a timestamp.
type TimeValue struct{ Time time.Time }

// BoolValue holds a boolean flag.
type BoolValue bool

// FloatValue holds a score.
type FloatValue float64

// CodeValue holds an enum-like code (status, particular type, event, reason).
type CodeValue string

// RelationValue holds a relation reference.
type RelationValue Relation

// BytesValue holds an opaque payload.
type BytesValue []byte

// IDListValue holds an ordered list of identifiers.
type IDListValue []Rui

// TempRefValue holds a temporal reference.
type TempRefValue struct{ Ref TempRef }

// TextValue holds free text such as a code from a code system.
type TextValue string

func (IDValue) Kind() Kind       { return KindIdentifier }
func (TimeValue) Kind() Kind     { return KindTimestamp }
func (BoolValue) Kind() Kind     { return KindBoolean }
func (FloatValue) Kind() Kind    { return KindFloat }
func (CodeValue) Kind() Kind     { return KindCode }
func (RelationValue) Kind() Kind { return KindRelation }
func (BytesValue) Kind() Kind    { return KindBytes }
func (IDListValue) Kind() Kind   { return KindIDList }
func (TempRefValue) Kind() Kind  { return KindTempRef }
func (TextValue) Kind() Kind     { return KindText }

func (IDValue) irValue()       {}
func (TimeValue) irValue()     {}
func (BoolValue) irValue()     {}
func (FloatValue) irValue()    {}
func (CodeValue) irValue()     {}
func (RelationValue) irValue() {}
func (BytesValue) irValue()    {}
func (IDListValue) irValue()   {}
func (TempRefValue) irValue()  {}
func (TextValue) irValue()     {}
