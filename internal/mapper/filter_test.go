package mapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/querycypher"
	"github.com/mcwdsi/rt2n4j/internal/testutil"
)

func compileFilter(t *testing.T, f Filter) (string, map[string]any) {
	t.Helper()
	stmt, err := BuildFilter(f)
	require.NoError(t, err)
	text, params, err := querycypher.Compile(stmt)
	require.NoError(t, err)
	return text, params
}

func TestBuildFilter_Empty(t *testing.T) {
	text, params := compileFilter(t, Filter{})
	assert.Equal(t, "MATCH (t:tuple)\nRETURN DISTINCT t.rui AS rui", text)
	assert.Empty(t, params)
}

func TestBuildFilter_PropertyAndLinkFields(t *testing.T) {
	yes := true
	text, params := compileFilter(t, Filter{
		Types:    []ir.TupleType{ir.TypeNtoR},
		Polarity: &yes,
		Ruin:     testutil.Rui(2),
		R:        testutil.RelHasRole,
	})

	assert.Equal(t, "MATCH (t:NtoR)\n"+
		"MATCH (t)-[:ruin]->(f_ruin)\n"+
		"MATCH (t)-[:r]->(f_r) WHERE t.polarity = $polarity AND f_ruin.rui = $ruin AND f_r.uri = $r\n"+
		"RETURN DISTINCT t.rui AS rui", text)
	assert.Equal(t, map[string]any{
		"polarity": true,
		"ruin":     testutil.Rui(2).String(),
		"r":        string(testutil.RelHasRole),
	}, params)
}

func TestBuildFilter_OrderedPositions(t *testing.T) {
	text, params := compileFilter(t, Filter{P: []ir.Rui{testutil.Rui(2), testutil.Rui(4)}})

	assert.Equal(t, "MATCH (t:tuple)\n"+
		"MATCH (t)-[:p {p: 0}]->(f_p_0)\n"+
		"MATCH (t)-[:p {p: 1}]->(f_p_1) WHERE f_p_0.rui = $p_0 AND f_p_1.rui = $p_1\n"+
		"RETURN DISTINCT t.rui AS rui", text)
	assert.Equal(t, testutil.Rui(4).String(), params["p_1"])
}

func TestBuildFilter_TypesUnion(t *testing.T) {
	text, _ := compileFilter(t, Filter{
		Types: []ir.TupleType{ir.TypeAN, ir.TypeAR, ir.TypeAN},
		Rui:   testutil.Rui(1),
	})
	assert.Equal(t, "MATCH (t:AN) WHERE t.rui = $rui\n"+
		"RETURN DISTINCT t.rui AS rui\n"+
		"UNION\n"+
		"MATCH (t:AR) WHERE t.rui = $rui\n"+
		"RETURN DISTINCT t.rui AS rui", text)
}

func TestBuildFilter_UnknownType(t *testing.T) {
	_, err := BuildFilter(Filter{Types: []ir.TupleType{"XX"}})
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)
	ctx := context.Background()

	no := false
	code := "C50.9"
	conf := 0.75
	reason := ir.ReasonErrorCorrection

	tests := []struct {
		name   string
		filter Filter
		want   []ir.Rui
	}{
		{"by type", Filter{Types: []ir.TupleType{ir.TypeF}}, []ir.Rui{testutil.Rui(12)}},
		{"by several types", Filter{Types: []ir.TupleType{ir.TypeF, ir.TypeDC}}, []ir.Rui{testutil.Rui(9), testutil.Rui(12)}},
		{"by referent", Filter{Ruin: testutil.Rui(2), Types: []ir.TupleType{ir.TypeNtoR, ir.TypeNtoLackR}},
			[]ir.Rui{testutil.Rui(14), testutil.Rui(20)}},
		{"by polarity", Filter{Polarity: &no}, []ir.Rui{testutil.Rui(14)}},
		{"by relation", Filter{R: testutil.RelPartOf}, []ir.Rui{testutil.Rui(13)}},
		{"by code", Filter{Code: &code}, []ir.Rui{testutil.Rui(17)}},
		{"by data", Filter{Data: []byte("hello")}, []ir.Rui{testutil.Rui(19)}},
		{"by confidence", Filter{C: &conf}, []ir.Rui{testutil.Rui(12)}},
		{"by reason", Filter{EventReason: &reason}, []ir.Rui{testutil.Rui(9)}},
		{"by author", Filter{Ruia: testutil.Rui(8)}, []ir.Rui{testutil.Rui(6)}},
		{"by calendar time", Filter{Tr: ir.NewTempRef(testutil.SampleTime), Types: []ir.TupleType{ir.TypeNtoN}},
			[]ir.Rui{testutil.Rui(13)}},
		{"by temporal entity", Filter{Tr: &ir.TempRef{Rui: testutil.Rui(11)}}, []ir.Rui{testutil.Rui(14)}},
		{"list prefix", Filter{P: []ir.Rui{testutil.Rui(2)}}, []ir.Rui{testutil.Rui(13)}},
		{"list exact position", Filter{P: []ir.Rui{testutil.Rui(4)}}, []ir.Rui{}},
		{"replacements", Filter{Replacements: []ir.Rui{testutil.Rui(1), testutil.Rui(3)}}, []ir.Rui{testutil.Rui(9)}},
		{"no match", Filter{Rui: testutil.Rui(999)}, []ir.Rui{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Query(ctx, tx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_ComposedFieldsExcludePartialMatches(t *testing.T) {
	_, tx := newTx(t)
	seq := testutil.NewRuiSequence()

	author, particular := seq.Next(), seq.Next()
	seed(t, tx, ir.AN{Rui: author, Status: ir.RuiAssigned, Unique: ir.PorSingular, Ruin: particular})

	full := ir.NtoN{Rui: seq.Next(), Polarity: true, R: testutil.RelPartOf, P: []ir.Rui{particular}}
	wrongPolarity := ir.NtoN{Rui: seq.Next(), Polarity: false, R: testutil.RelPartOf, P: []ir.Rui{particular}}
	wrongRelation := ir.NtoN{Rui: seq.Next(), Polarity: true, R: testutil.RelHasRole, P: []ir.Rui{particular}}
	other := ir.F{Rui: seq.Next(), C: 0.5, Ruitn: full.Rui}
	seed(t, tx, full, wrongPolarity, wrongRelation, other)

	yes := true
	got, err := Query(context.Background(), tx, Filter{Polarity: &yes, R: testutil.RelPartOf})
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{full.Rui}, got)

	got, err = Query(context.Background(), tx, Filter{Polarity: &yes, R: testutil.RelPartOf, P: []ir.Rui{author}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Query(context.Background(), tx, Filter{Types: []ir.TupleType{ir.TypeAN, ir.TypeNtoN}, Polarity: &yes})
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{full.Rui, wrongRelation.Rui}, got, "AN carries no polarity")

	got, err = Query(context.Background(), tx, Filter{Types: []ir.TupleType{ir.TypeAN, ir.TypeF}})
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{author, other.Rui}, got)
}

func TestQuery_EmptyPayload(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	empty := ir.NtoDE{Rui: testutil.Rui(40), Polarity: true, Ruin: testutil.Rui(2), Ruidt: testutil.Rui(18)}
	hello := ir.NtoDE{Rui: testutil.Rui(41), Polarity: true, Ruin: testutil.Rui(2), Ruidt: testutil.Rui(18),
		Data: []byte("hello")}
	seed(t, tx, empty, hello)

	got, err := Query(context.Background(), tx, Filter{Data: []byte{}})
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{empty.Rui}, got)

	got, err = Query(context.Background(), tx, Filter{Data: nil, Types: []ir.TupleType{ir.TypeNtoDE}})
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{empty.Rui, hello.Rui}, got)

	f, err := FilterFromFields(map[string]any{"data": ""})
	require.NoError(t, err)
	assert.NotNil(t, f.Data)
	assert.Empty(t, f.Data)
}

func TestQuery_AllTuples(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)

	got, err := Query(context.Background(), tx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, len(testutil.SampleTuples()))
}

func TestAuthored(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)

	got, err := Authored(context.Background(), tx, testutil.Rui(8))
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{testutil.Rui(1)}, got)

	got, err = Authored(context.Background(), tx, testutil.Rui(2))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReferencing(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)

	got, err := Referencing(context.Background(), tx, testutil.Rui(4))
	require.NoError(t, err)
	// AR placeholder, NtoN p, NtoR ruir, NtoLackR ruir.
	assert.Equal(t, []ir.Rui{testutil.Rui(3), testutil.Rui(13), testutil.Rui(14), testutil.Rui(20)}, got)
}

func TestAvailableRuis(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	got, err := AvailableRuis(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Rui{
		testutil.Rui(1), testutil.Rui(2), testutil.Rui(7), testutil.Rui(8),
		testutil.Rui(10), testutil.Rui(11), testutil.Rui(16), testutil.Rui(18),
	}, got)
}

func TestLookups_NilTx(t *testing.T) {
	ctx := context.Background()
	_, err := Query(ctx, nil, Filter{})
	assert.True(t, IsTransactionNotSet(err))
	_, err = Authored(ctx, nil, testutil.Rui(1))
	assert.True(t, IsTransactionNotSet(err))
	_, err = Referencing(ctx, nil, testutil.Rui(1))
	assert.True(t, IsTransactionNotSet(err))
	_, err = AvailableRuis(ctx, nil)
	assert.True(t, IsTransactionNotSet(err))
}

func TestFilterFromFields(t *testing.T) {
	f, err := FilterFromFields(map[string]any{
		"types":        []any{"NtoR", "NtoLackR"},
		"ruin":         testutil.Rui(2).String(),
		"polarity":     false,
		"tr":           testutil.Rui(11).String(),
		"r":            string(testutil.RelHasRole),
		"event_reason": "CE",
		"p":            []any{testutil.Rui(2).String()},
	})
	require.NoError(t, err)

	no := false
	reason := ir.ReasonRealityChange
	assert.Equal(t, Filter{
		Types:       []ir.TupleType{ir.TypeNtoR, ir.TypeNtoLackR},
		Ruin:        testutil.Rui(2),
		Polarity:    &no,
		Tr:          &ir.TempRef{Rui: testutil.Rui(11)},
		R:           testutil.RelHasRole,
		EventReason: &reason,
		P:           []ir.Rui{testutil.Rui(2)},
	}, f)
}

func TestFilterFromFields_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"unknown field", map[string]any{"colour": "red"}},
		{"unfilterable id", map[string]any{"ruio": testutil.Rui(5).String()}},
		{"unfilterable enum", map[string]any{"ar": "A"}},
		{"unfilterable time", map[string]any{"t": "2024-01-01T00:00:00Z"}},
		{"types not a list", map[string]any{"types": "AN"}},
		{"unknown type", map[string]any{"types": []any{"XX"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FilterFromFields(tt.fields)
			assert.Error(t, err)
		})
	}
}
