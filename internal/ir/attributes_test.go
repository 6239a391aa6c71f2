package ir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedTuples() []Tuple {
	at := time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC)
	ref := func() Rui { return NewIDRui() }

	return []Tuple{
		AN{Rui: ref(), Status: RuiReserved, Unique: PorCollective, Ruin: ref()},
		AR{Rui: ref(), Status: RuiAssigned, Unique: PorSingular, Ruir: ref(), Ruio: ref()},
		DI{Rui: ref(), T: at, Reason: ReasonBeliefChange, Ruit: ref(), Ruid: ref(), Ruia: ref(), Ta: NewTempRef(at)},
		DC{Rui: ref(), T: at, Reason: ReasonErrorCorrection, Event: EventInvalidate, Ruit: ref(), Ruid: ref(), Replacements: []Rui{ref(), ref()}},
		F{Rui: ref(), C: 0.75, Ruitn: ref()},
		NtoN{Rui: ref(), Polarity: false, R: "http://purl.obolibrary.org/obo/BFO_0000050", Tr: &TempRef{Rui: ref()}, P: []Rui{ref(), ref(), ref()}},
		NtoR{Rui: ref(), Polarity: true, Ruin: ref(), Ruir: ref(), R: "rel:instance_of", Tr: NewTempRef(at)},
		NtoC{Rui: ref(), Polarity: true, R: "rel:has_code", Ruin: ref(), Ruics: ref(), Code: "E11.9", Tr: NewTempRef(at)},
		NtoDE{Rui: ref(), Polarity: true, Ruin: ref(), Ruidt: ref(), Data: []byte{0x00, 0x01, 0xfe}},
		NtoLackR{Rui: ref(), Ruin: ref(), Ruir: ref(), R: "rel:lacks", Tr: NewTempRef(at)},
	}
}

func minimalTuples() []Tuple {
	return []Tuple{
		NewAN(), NewAR(), NewDI(), NewDC(), NewF(),
		NewNtoN(), NewNtoR(), NewNtoC(), NewNtoDE(), NewNtoLackR(),
	}
}

func TestAttributesBuildRoundTrip(t *testing.T) {
	for _, set := range [][]Tuple{minimalTuples(), populatedTuples()} {
		for _, tup := range set {
			t.Run(string(tup.TupleType()), func(t *testing.T) {
				attrs, err := AttributesOf(tup)
				require.NoError(t, err)

				rebuilt, err := Build(tup.TupleType(), attrs)
				require.NoError(t, err)
				assert.Equal(t, tup, rebuilt)
			})
		}
	}
}

func TestAttributesCoverEveryVariant(t *testing.T) {
	seen := map[TupleType]bool{}
	for _, tup := range populatedTuples() {
		seen[tup.TupleType()] = true
	}
	for _, tt := range TupleTypes() {
		assert.True(t, seen[tt], "no fixture for %s", tt)
	}
}

func TestAttributesKinds(t *testing.T) {
	dc := DC{
		Rui:          NewIDRui(),
		T:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Reason:       ReasonRealityChange,
		Event:        EventInsert,
		Replacements: []Rui{NewIDRui()},
	}

	attrs, err := AttributesOf(dc)
	require.NoError(t, err)

	expected := map[Component]Kind{
		CompRui:          KindIdentifier,
		CompT:            KindTimestamp,
		CompEventReason:  KindCode,
		CompEvent:        KindCode,
		CompReplacements: KindIDList,
	}
	require.Len(t, attrs, len(expected))
	for c, k := range expected {
		assert.Equal(t, k, attrs[c].Kind(), "component %s", c)
	}
}

func TestAttributesOmitAbsent(t *testing.T) {
	attrs, err := AttributesOf(NtoN{Rui: NewIDRui(), Polarity: true})
	require.NoError(t, err)

	assert.Equal(t, []Component{CompPolarity, CompRui}, attrs.SortedComponents())
}

func TestAttributesKeepTextVerbatim(t *testing.T) {
	attrs, err := AttributesOf(NtoC{Rui: NewIDRui(), Code: "cafe\u0301", R: "http://x/e\u0301"})
	require.NoError(t, err)

	assert.Equal(t, TextValue("cafe\u0301"), attrs[CompCode])
	assert.Equal(t, RelationValue("http://x/e\u0301"), attrs[CompR])
}

func TestAttributesRejectNonFiniteConfidence(t *testing.T) {
	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := AttributesOf(F{Rui: NewIDRui(), C: c})
		require.Error(t, err, "C=%v", c)
		assert.Contains(t, err.Error(), `component "C"`)
	}
}

func TestBuild_KindMismatch(t *testing.T) {
	_, err := Build(TypeF, Attributes{
		CompRui: IDValue{Rui: NewIDRui()},
		CompC:   TextValue("high"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `component "C"`)
}

func TestBuild_MissingRui(t *testing.T) {
	_, err := Build(TypeAN, Attributes{})
	assert.Error(t, err)
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build(TupleType("XX"), Attributes{})
	assert.Error(t, err)
}

func TestParseTupleType(t *testing.T) {
	for _, tt := range TupleTypes() {
		parsed, err := ParseTupleType(string(tt))
		require.NoError(t, err)
		assert.Equal(t, tt, parsed)
	}

	_, err := ParseTupleType("tuple")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	_, err := ParseRuiStatus("A")
	assert.NoError(t, err)
	_, err = ParseRuiStatus("Z")
	assert.Error(t, err)

	_, err = ParsePorType("collective")
	assert.NoError(t, err)
	_, err = ParseEventType("X")
	assert.NoError(t, err)
	_, err = ParseChangeReason("nope")
	assert.Error(t, err)
}
