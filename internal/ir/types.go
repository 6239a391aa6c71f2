package ir

import (
	"fmt"
	"time"
)

// TupleType is the variant tag of a tuple. Its value is also the node label
// the variant is stored under.
type TupleType string

const (
	TypeAN       TupleType = "AN"
	TypeAR       TupleType = "AR"
	TypeDI       TupleType = "DI"
	TypeDC       TupleType = "DC"
	TypeF        TupleType = "F"
	TypeNtoN     TupleType = "NtoN"
	TypeNtoR     TupleType = "NtoR"
	TypeNtoC     TupleType = "NtoC"
	TypeNtoDE    TupleType = "NtoDE"
	TypeNtoLackR TupleType = "NtoLackR"
)

// TupleTypes lists every variant in a fixed order.
func TupleTypes() []TupleType {
	return []TupleType{
		TypeAN, TypeAR, TypeDI, TypeDC, TypeF,
		TypeNtoN, TypeNtoR, TypeNtoC, TypeNtoDE, TypeNtoLackR,
	}
}

// ParseTupleType parses a variant tag.
func ParseTupleType(s string) (TupleType, error) {
	for _, tt := range TupleTypes() {
		if string(tt) == s {
			return tt, nil
		}
	}
	return "", fmt.Errorf("unknown tuple type %q", s)
}

// Component names a tuple field. Components double as node property keys
// and as relationship types in the persisted graph.
type Component string

const (
	CompRui          Component = "rui"
	CompStatus       Component = "ar"
	CompUnique       Component = "unique"
	CompRuin         Component = "ruin"
	CompRuir         Component = "ruir"
	CompRuio         Component = "ruio"
	CompT            Component = "t"
	CompEventReason  Component = "event_reason"
	CompEvent        Component = "event"
	CompRuit         Component = "ruit"
	CompRuid         Component = "ruid"
	CompRuia         Component = "ruia"
	CompTa           Component = "ta"
	CompReplacements Component = "replacements"
	CompC            Component = "C"
	CompRuitn        Component = "ruitn"
	CompPolarity     Component = "polarity"
	CompR            Component = "r"
	CompTr           Component = "tr"
	CompP            Component = "p"
	CompRuics        Component = "ruics"
	CompCode         Component = "code"
	CompRuidt        Component = "ruidt"
	CompData         Component = "data"
)

// Relation is an opaque reference to an ontology relation, usually a URI.
type Relation string

// Tuple is an immutable referent-tracking record.
//
// This is a sealed interface - only the ten variant types in this package
// implement it. Switch over it exhaustively.
type Tuple interface {
	TupleType() TupleType
	ID() Rui
	tuple()
}

// AN assigns a non-repeatable referent.
type AN struct {
	Rui    Rui
	Status RuiStatus
	Unique PorType
	Ruin   Rui
}

// AR assigns a repeatable referent.
type AR struct {
	Rui    Rui
	Status RuiStatus
	Unique PorType
	Ruir   Rui
	Ruio   Rui
}

// DI registers a tuple in the store.
type DI struct {
	Rui    Rui
	T      time.Time
	Reason ChangeReason
	Ruit   Rui
	Ruid   Rui
	Ruia   Rui
	Ta     *TempRef
}

// DC records a change to previously registered tuples.
type DC struct {
	Rui          Rui
	T            time.Time
	Reason       ChangeReason
	Event        EventType
	Ruit         Rui
	Ruid         Rui
	Replacements []Rui
}

// F attaches a confidence score to another tuple.
type F struct {
	Rui   Rui
	C     float64
	Ruitn Rui
}

// NtoN relates an ordered list of particulars.
type NtoN struct {
	Rui      Rui
	Polarity bool
	R        Relation
	Tr       *TempRef
	P        []Rui
}

// NtoR relates a particular to a repeatable referent.
type NtoR struct {
	Rui      Rui
	Polarity bool
	Ruin     Rui
	Ruir     Rui
	R        Relation
	Tr       *TempRef
}

// NtoC annotates a particular with a code from a code system.
type NtoC struct {
	Rui      Rui
	Polarity bool
	R        Relation
	Ruin     Rui
	Ruics    Rui
	Code     string
	Tr       *TempRef
}

// NtoDE annotates a particular with a data payload of a given type.
type NtoDE struct {
	Rui      Rui
	Polarity bool
	Ruin     Rui
	Ruidt    Rui
	Data     []byte
}

// NtoLackR asserts that a particular lacks a relation to a repeatable.
type NtoLackR struct {
	Rui  Rui
	Ruin Rui
	Ruir Rui
	R    Relation
	Tr   *TempRef
}

func (AN) TupleType() TupleType       { return TypeAN }
func (AR) TupleType() TupleType       { return TypeAR }
func (DI) TupleType() TupleType       { return TypeDI }
func (DC) TupleType() TupleType       { return TypeDC }
func (F) TupleType() TupleType        { return TypeF }
func (NtoN) TupleType() TupleType     { return TypeNtoN }
func (NtoR) TupleType() TupleType     { return TypeNtoR }
func (NtoC) TupleType() TupleType     { return TypeNtoC }
func (NtoDE) TupleType() TupleType    { return TypeNtoDE }
func (NtoLackR) TupleType() TupleType { return TypeNtoLackR }

func (t AN) ID() Rui       { return t.Rui }
func (t AR) ID() Rui       { return t.Rui }
func (t DI) ID() Rui       { return t.Rui }
func (t DC) ID() Rui       { return t.Rui }
func (t F) ID() Rui        { return t.Rui }
func (t NtoN) ID() Rui     { return t.Rui }
func (t NtoR) ID() Rui     { return t.Rui }
func (t NtoC) ID() Rui     { return t.Rui }
func (t NtoDE) ID() Rui    { return t.Rui }
func (t NtoLackR) ID() Rui { return t.Rui }

func (AN) tuple()       {}
func (AR) tuple()       {}
func (DI) tuple()       {}
func (DC) tuple()       {}
func (F) tuple()        {}
func (NtoN) tuple()     {}
func (NtoR) tuple()     {}
func (NtoC) tuple()     {}
func (NtoDE) tuple()    {}
func (NtoLackR) tuple() {}

func now() time.Time {
	return NormalizeTime(time.Now())
}

// NewAN returns an assignment with a fresh rui and a fresh placeholder id.
func NewAN() AN {
	return AN{Rui: NewIDRui(), Status: RuiAssigned, Unique: PorSingular, Ruin: NewIDRui()}
}

// NewAR returns an assignment with a fresh rui and a fresh placeholder id.
func NewAR() AR {
	return AR{Rui: NewIDRui(), Status: RuiAssigned, Unique: PorSingular, Ruir: NewIDRui()}
}

func NewDI() DI {
	return DI{Rui: NewIDRui(), T: now(), Reason: ReasonRealityChange}
}

func NewDC() DC {
	return DC{Rui: NewIDRui(), T: now(), Reason: ReasonRealityChange, Event: EventInsert}
}

func NewF() F {
	return F{Rui: NewIDRui(), C: 1}
}

func NewNtoN() NtoN {
	return NtoN{Rui: NewIDRui(), Polarity: true}
}

func NewNtoR() NtoR {
	return NtoR{Rui: NewIDRui(), Polarity: true}
}

func NewNtoC() NtoC {
	return NtoC{Rui: NewIDRui(), Polarity: true}
}

func NewNtoDE() NtoDE {
	return NtoDE{Rui: NewIDRui(), Polarity: true}
}

func NewNtoLackR() NtoLackR {
	return NtoLackR{Rui: NewIDRui()}
}
