package ir

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Attributes maps tuple components to typed values.
// Absent references, empty lists and empty strings are omitted.
type Attributes map[Component]Value

// SortedComponents returns the components in lexical order.
func (a Attributes) SortedComponents() []Component {
	keys := make([]Component, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (a Attributes) putRui(c Component, r Rui) {
	if r != nil {
		a[c] = IDValue{Rui: r}
	}
}

func (a Attributes) putTempRef(c Component, t *TempRef) {
	if t != nil && t.Rui != nil {
		a[c] = TempRefValue{Ref: *t}
	}
}

func (a Attributes) putRelation(c Component, r Relation) {
	if r != "" {
		a[c] = RelationValue(r)
	}
}

func (a Attributes) putCode(c Component, s string) {
	if s != "" {
		a[c] = CodeValue(s)
	}
}

func (a Attributes) putIDs(c Component, ids []Rui) {
	if len(ids) > 0 {
		a[c] = IDListValue(append([]Rui(nil), ids...))
	}
}

// AttributesOf extracts every field of t with its semantic kind. Values
// are carried exactly as given.
func AttributesOf(t Tuple) (Attributes, error) {
	a := Attributes{}
	switch v := t.(type) {
	case AN:
		a.putRui(CompRui, v.Rui)
		a.putCode(CompStatus, string(v.Status))
		a.putCode(CompUnique, string(v.Unique))
		a.putRui(CompRuin, v.Ruin)
	case AR:
		a.putRui(CompRui, v.Rui)
		a.putCode(CompStatus, string(v.Status))
		a.putCode(CompUnique, string(v.Unique))
		a.putRui(CompRuir, v.Ruir)
		a.putRui(CompRuio, v.Ruio)
	case DI:
		a.putRui(CompRui, v.Rui)
		a[CompT] = TimeValue{Time: NormalizeTime(v.T)}
		a.putCode(CompEventReason, string(v.Reason))
		a.putRui(CompRuit, v.Ruit)
		a.putRui(CompRuid, v.Ruid)
		a.putRui(CompRuia, v.Ruia)
		a.putTempRef(CompTa, v.Ta)
	case DC:
		a.putRui(CompRui, v.Rui)
		a[CompT] = TimeValue{Time: NormalizeTime(v.T)}
		a.putCode(CompEventReason, string(v.Reason))
		a.putCode(CompEvent, string(v.Event))
		a.putRui(CompRuit, v.Ruit)
		a.putRui(CompRuid, v.Ruid)
		a.putIDs(CompReplacements, v.Replacements)
	case F:
		if math.IsNaN(v.C) || math.IsInf(v.C, 0) {
			return nil, fmt.Errorf("component %q: confidence must be finite, got %v", CompC, v.C)
		}
		a.putRui(CompRui, v.Rui)
		a[CompC] = FloatValue(v.C)
		a.putRui(CompRuitn, v.Ruitn)
	case NtoN:
		a.putRui(CompRui, v.Rui)
		a[CompPolarity] = BoolValue(v.Polarity)
		a.putRelation(CompR, v.R)
		a.putTempRef(CompTr, v.Tr)
		a.putIDs(CompP, v.P)
	case NtoR:
		a.putRui(CompRui, v.Rui)
		a[CompPolarity] = BoolValue(v.Polarity)
		a.putRui(CompRuin, v.Ruin)
		a.putRui(CompRuir, v.Ruir)
		a.putRelation(CompR, v.R)
		a.putTempRef(CompTr, v.Tr)
	case NtoC:
		a.putRui(CompRui, v.Rui)
		a[CompPolarity] = BoolValue(v.Polarity)
		a.putRelation(CompR, v.R)
		a.putRui(CompRuin, v.Ruin)
		a.putRui(CompRuics, v.Ruics)
		if v.Code != "" {
			a[CompCode] = TextValue(v.Code)
		}
		a.putTempRef(CompTr, v.Tr)
	case NtoDE:
		a.putRui(CompRui, v.Rui)
		a[CompPolarity] = BoolValue(v.Polarity)
		a.putRui(CompRuin, v.Ruin)
		a.putRui(CompRuidt, v.Ruidt)
		if len(v.Data) > 0 {
			a[CompData] = BytesValue(append([]byte(nil), v.Data...))
		}
	case NtoLackR:
		a.putRui(CompRui, v.Rui)
		a.putRui(CompRuin, v.Ruin)
		a.putRui(CompRuir, v.Ruir)
		a.putRelation(CompR, v.R)
		a.putTempRef(CompTr, v.Tr)
	default:
		return nil, fmt.Errorf("unsupported tuple type: %T", t)
	}
	return a, nil
}

// attrReader reads typed fields out of Attributes and keeps the first
// kind mismatch it sees.
type attrReader struct {
	attrs Attributes
	err   error
}

func (r *attrReader) get(c Component, want Kind) Value {
	v, ok := r.attrs[c]
	if !ok {
		return nil
	}
	if v.Kind() != want {
		if r.err == nil {
			r.err = fmt.Errorf("component %q: expected %s, got %s", c, want, v.Kind())
		}
		return nil
	}
	return v
}

func (r *attrReader) rui(c Component) Rui {
	if v := r.get(c, KindIdentifier); v != nil {
		return v.(IDValue).Rui
	}
	return nil
}

func (r *attrReader) time(c Component) time.Time {
	if v := r.get(c, KindTimestamp); v != nil {
		return NormalizeTime(v.(TimeValue).Time)
	}
	return time.Time{}
}

func (r *attrReader) bool(c Component) bool {
	if v := r.get(c, KindBoolean); v != nil {
		return bool(v.(BoolValue))
	}
	return false
}

func (r *attrReader) float(c Component) float64 {
	if v := r.get(c, KindFloat); v != nil {
		return float64(v.(FloatValue))
	}
	return 0
}

func (r *attrReader) code(c Component) string {
	if v := r.get(c, KindCode); v != nil {
		return string(v.(CodeValue))
	}
	return ""
}

func (r *attrReader) relation(c Component) Relation {
	if v := r.get(c, KindRelation); v != nil {
		return Relation(v.(RelationValue))
	}
	return ""
}

func (r *attrReader) text(c Component) string {
	if v := r.get(c, KindText); v != nil {
		return string(v.(TextValue))
	}
	return ""
}

func (r *attrReader) bytes(c Component) []byte {
	if v := r.get(c, KindBytes); v != nil && len(v.(BytesValue)) > 0 {
		return append([]byte(nil), v.(BytesValue)...)
	}
	return nil
}

func (r *attrReader) ids(c Component) []Rui {
	if v := r.get(c, KindIDList); v != nil && len(v.(IDListValue)) > 0 {
		return append([]Rui(nil), v.(IDListValue)...)
	}
	return nil
}

func (r *attrReader) tempRef(c Component) *TempRef {
	if v := r.get(c, KindTempRef); v != nil {
		ref := v.(TempRefValue).Ref
		return &ref
	}
	return nil
}

// Build constructs a tuple of type tt from its attributes. It is the
// inverse of AttributesOf: Build(t.TupleType(), AttributesOf(t)) equals t.
func Build(tt TupleType, a Attributes) (Tuple, error) {
	r := &attrReader{attrs: a}
	var t Tuple
	switch tt {
	case TypeAN:
		t = AN{
			Rui:    r.rui(CompRui),
			Status: RuiStatus(r.code(CompStatus)),
			Unique: PorType(r.code(CompUnique)),
			Ruin:   r.rui(CompRuin),
		}
	case TypeAR:
		t = AR{
			Rui:    r.rui(CompRui),
			Status: RuiStatus(r.code(CompStatus)),
			Unique: PorType(r.code(CompUnique)),
			Ruir:   r.rui(CompRuir),
			Ruio:   r.rui(CompRuio),
		}
	case TypeDI:
		t = DI{
			Rui:    r.rui(CompRui),
			T:      r.time(CompT),
			Reason: ChangeReason(r.code(CompEventReason)),
			Ruit:   r.rui(CompRuit),
			Ruid:   r.rui(CompRuid),
			Ruia:   r.rui(CompRuia),
			Ta:     r.tempRef(CompTa),
		}
	case TypeDC:
		t = DC{
			Rui:          r.rui(CompRui),
			T:            r.time(CompT),
			Reason:       ChangeReason(r.code(CompEventReason)),
			Event:        EventType(r.code(CompEvent)),
			Ruit:         r.rui(CompRuit),
			Ruid:         r.rui(CompRuid),
			Replacements: r.ids(CompReplacements),
		}
	case TypeF:
		t = F{
			Rui:   r.rui(CompRui),
			C:     r.float(CompC),
			Ruitn: r.rui(CompRuitn),
		}
	case TypeNtoN:
		t = NtoN{
			Rui:      r.rui(CompRui),
			Polarity: r.bool(CompPolarity),
			R:        r.relation(CompR),
			Tr:       r.tempRef(CompTr),
			P:        r.ids(CompP),
		}
	case TypeNtoR:
		t = NtoR{
			Rui:      r.rui(CompRui),
			Polarity: r.bool(CompPolarity),
			Ruin:     r.rui(CompRuin),
			Ruir:     r.rui(CompRuir),
			R:        r.relation(CompR),
			Tr:       r.tempRef(CompTr),
		}
	case TypeNtoC:
		t = NtoC{
			Rui:      r.rui(CompRui),
			Polarity: r.bool(CompPolarity),
			R:        r.relation(CompR),
			Ruin:     r.rui(CompRuin),
			Ruics:    r.rui(CompRuics),
			Code:     r.text(CompCode),
			Tr:       r.tempRef(CompTr),
		}
	case TypeNtoDE:
		t = NtoDE{
			Rui:      r.rui(CompRui),
			Polarity: r.bool(CompPolarity),
			Ruin:     r.rui(CompRuin),
			Ruidt:    r.rui(CompRuidt),
			Data:     r.bytes(CompData),
		}
	case TypeNtoLackR:
		t = NtoLackR{
			Rui:  r.rui(CompRui),
			Ruin: r.rui(CompRuin),
			Ruir: r.rui(CompRuir),
			R:    r.relation(CompR),
			Tr:   r.tempRef(CompTr),
		}
	default:
		return nil, fmt.Errorf("unknown tuple type %q", tt)
	}
	if r.err != nil {
		return nil, fmt.Errorf("build %s: %w", tt, r.err)
	}
	if t.ID() == nil {
		return nil, fmt.Errorf("build %s: missing rui", tt)
	}
	return t, nil
}
