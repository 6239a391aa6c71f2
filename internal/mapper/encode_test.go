package mapper

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/sqlgraph"
	"github.com/mcwdsi/rt2n4j/internal/testutil"
)

// newTx opens a transaction on a fresh in-memory graph.
func newTx(t *testing.T) (*sqlgraph.Graph, graph.Tx) {
	t.Helper()
	g, err := sqlgraph.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { g.Close(context.Background()) })

	tx, err := g.Begin(context.Background())
	require.NoError(t, err)
	return g, tx
}

// seed encodes tuples in order.
func seed(t *testing.T, tx graph.Tx, tuples ...ir.Tuple) {
	t.Helper()
	for _, tu := range tuples {
		require.NoError(t, Encode(context.Background(), tx, tu), "encode %s %s", tu.TupleType(), tu.ID())
	}
}

func countNodes(t *testing.T, g *sqlgraph.Graph, where string) int {
	t.Helper()
	var n int
	require.NoError(t, g.DB().QueryRow("SELECT COUNT(*) FROM nodes "+where).Scan(&n))
	return n
}

func TestExplain_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range ir.TupleTypes() {
		t.Run(string(tt), func(t *testing.T) {
			tu := testutil.Sample(tt)
			require.NotNil(t, tu)

			text, params, err := Explain(tu)
			require.NoError(t, err)

			// Digests are covered by the ir hash tests; keep goldens readable.
			switch v := tu.(type) {
			case ir.NtoC:
				want, err := ir.CodeDigest(v.Ruics, v.Code)
				require.NoError(t, err)
				assert.Equal(t, want, params["code_digest"])
				delete(params, "code_digest")
			case ir.NtoDE:
				want, err := ir.DataDigest(v.Ruidt, v.Data)
				require.NoError(t, err)
				assert.Equal(t, want, params["data_digest"])
				delete(params, "data_digest")
			}

			body, err := json.MarshalIndent(params, "", "  ")
			require.NoError(t, err)
			g.Assert(t, "encode_"+string(tt), []byte(text+"\n\n"+string(body)+"\n"))
		})
	}
}

func TestExplain_Deterministic(t *testing.T) {
	for _, tu := range testutil.SampleTuples() {
		first, _, err := Explain(tu)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, _, err := Explain(tu)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestEncode_NilTx(t *testing.T) {
	err := Encode(context.Background(), nil, testutil.Sample(ir.TypeAN))
	require.Error(t, err)
	assert.True(t, IsTransactionNotSet(err))
}

func TestEncode_MissingRui(t *testing.T) {
	_, tx := newTx(t)
	err := Encode(context.Background(), tx, ir.AN{Status: ir.RuiAssigned, Unique: ir.PorSingular})
	assert.Error(t, err)
}

func TestEncode_AllVariants(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, len(testutil.SampleTuples()), countNodes(t, g,
		"WHERE id IN (SELECT node_id FROM node_labels WHERE label = 'tuple')"))
}

func TestEncode_DanglingReference(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	missing := testutil.Rui(99)
	di := ir.DI{
		Rui:    testutil.Rui(50),
		T:      testutil.SampleTime,
		Reason: ir.ReasonRealityChange,
		Ruit:   testutil.Rui(1),
		Ruid:   missing,
		Ruia:   testutil.Rui(8),
	}

	err := Encode(context.Background(), tx, di)
	require.Error(t, err)
	assert.True(t, IsDanglingReference(err))

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{missing.String()}, me.Missing)
	assert.Equal(t, di.Rui.String(), me.Rui)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.Zero(t, countNodes(t, g, ""))
}

func TestEncode_DanglingLeavesNoPartialNode(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	nton := ir.NtoN{Rui: testutil.Rui(60), Polarity: true, R: testutil.RelPartOf,
		P: []ir.Rui{testutil.Rui(2), testutil.Rui(98)}}
	err := Encode(context.Background(), tx, nton)
	require.True(t, IsDanglingReference(err), "got %v", err)
	require.NoError(t, tx.Commit(context.Background()))

	// Only the four assignments and their placeholders.
	assert.Equal(t, 8, countNodes(t, g, ""))
}

func TestEncode_DanglingTemporalRef(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	ntor := ir.NtoR{Rui: testutil.Rui(61), Polarity: true, Ruin: testutil.Rui(2),
		Ruir: testutil.Rui(2), R: testutil.RelHasRole, Tr: &ir.TempRef{Rui: testutil.Rui(97)}}
	err := Encode(context.Background(), tx, ntor)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ErrCodeDanglingReference, me.Code)
	assert.Equal(t, []string{testutil.Rui(97).String()}, me.Missing)
}

func TestEncode_SharedLeaves(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	code := func(n int, c string) ir.NtoC {
		return ir.NtoC{Rui: testutil.Rui(n), Polarity: true, R: testutil.RelIsAbout,
			Ruin: testutil.Rui(2), Ruics: testutil.Rui(18), Code: c}
	}
	data := func(n int, d string) ir.NtoDE {
		return ir.NtoDE{Rui: testutil.Rui(n), Polarity: true, Ruin: testutil.Rui(2),
			Ruidt: testutil.Rui(18), Data: []byte(d)}
	}
	seed(t, tx, code(30, "C50.9"), code(31, "C50.9"), code(32, "C34.1"),
		data(33, "hello"), data(34, "hello"), data(35, "bye"))
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, 2, countNodes(t, g, "WHERE id IN (SELECT node_id FROM node_labels WHERE label = 'code')"))
	assert.Equal(t, 2, countNodes(t, g, "WHERE id IN (SELECT node_id FROM node_labels WHERE label = 'data')"))
	assert.Equal(t, 1, countNodes(t, g, "WHERE id IN (SELECT node_id FROM node_labels WHERE label = 'rel')"))

	var typeEdges int
	require.NoError(t, g.DB().QueryRow("SELECT COUNT(*) FROM edges WHERE type IN ('ruics', 'ruidt')").Scan(&typeEdges))
	assert.Equal(t, 4, typeEdges)
}

func TestEncode_SharedLeavesAcrossTransactions(t *testing.T) {
	g, err := sqlgraph.Open(":memory:")
	require.NoError(t, err)
	defer g.Close(context.Background())
	ctx := context.Background()

	tx, err := g.Begin(ctx)
	require.NoError(t, err)
	seed(t, tx, testutil.SampleANs()...)
	seed(t, tx, ir.NtoC{Rui: testutil.Rui(30), Polarity: true, Ruin: testutil.Rui(2), Ruics: testutil.Rui(18), Code: "C50.9"})
	require.NoError(t, tx.Commit(ctx))

	tx, err = g.Begin(ctx)
	require.NoError(t, err)
	seed(t, tx, ir.NtoC{Rui: testutil.Rui(31), Polarity: true, Ruin: testutil.Rui(2), Ruics: testutil.Rui(18), Code: "C50.9"})
	require.NoError(t, tx.Commit(ctx))

	var n int
	require.NoError(t, g.DB().QueryRow("SELECT COUNT(*) FROM nodes WHERE digest IS NOT NULL").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestEncode_CalendarTemporalMergedOnce(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleTuples()...)
	require.NoError(t, tx.Commit(context.Background()))

	// DI, NtoN, NtoC and NtoLackR share one calendar value.
	assert.Equal(t, 1, countNodes(t, g, "WHERE id IN (SELECT node_id FROM node_labels WHERE label = 'temp')"))
}

func TestEncode_DuplicateRui(t *testing.T) {
	g, tx := newTx(t)
	an := ir.AN{Rui: testutil.Rui(1), Status: ir.RuiAssigned, Unique: ir.PorSingular, Ruin: testutil.Rui(2)}
	seed(t, tx, an)

	err := Encode(context.Background(), tx, an)
	require.Error(t, err)
	assert.True(t, IsDuplicateRui(err), "got %v", err)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, an.Rui.String(), me.Rui)
	assert.Equal(t, []string{testutil.Rui(1).String(), testutil.Rui(2).String()}, me.Missing)

	require.NoError(t, tx.Commit(context.Background()))
	assert.Equal(t, 2, countNodes(t, g, ""))

	// A later reference to the placeholder still resolves to one node.
	tx, err = g.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback(context.Background())
	seed(t, tx, ir.NtoLackR{Rui: testutil.Rui(3), Ruin: testutil.Rui(2)})
}

func TestEncode_DuplicatePlaceholderRui(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	// Rui(2) is the placeholder of the first sample assignment.
	err := Encode(context.Background(), tx, ir.AR{Rui: testutil.Rui(40), Status: ir.RuiAssigned,
		Unique: ir.PorCollective, Ruir: testutil.Rui(2)})
	require.True(t, IsDuplicateRui(err), "got %v", err)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{testutil.Rui(2).String()}, me.Missing)

	// A tuple reusing another tuple's rui is rejected the same way.
	err = Encode(context.Background(), tx, ir.F{Rui: testutil.Rui(7), C: 1, Ruitn: testutil.Rui(1)})
	assert.True(t, IsDuplicateRui(err), "got %v", err)

	require.NoError(t, tx.Commit(context.Background()))
	assert.Equal(t, 8, countNodes(t, g, ""))
}

func TestEncode_NonFiniteConfidence(t *testing.T) {
	_, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)

	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := Encode(context.Background(), tx, ir.F{Rui: testutil.Rui(40), C: c, Ruitn: testutil.Rui(1)})
		require.Error(t, err, "C=%v", c)
		assert.Contains(t, err.Error(), "finite")
	}

	_, _, err := Explain(ir.F{Rui: testutil.Rui(40), C: math.NaN()})
	assert.Error(t, err)
}

func TestEncode_DataStoredAsBase64(t *testing.T) {
	g, tx := newTx(t)
	seed(t, tx, testutil.SampleANs()...)
	payload := []byte{0x00, 0xff, 'h', 'i'}
	seed(t, tx, ir.NtoDE{Rui: testutil.Rui(40), Polarity: true, Ruin: testutil.Rui(2),
		Ruidt: testutil.Rui(18), Data: payload})
	require.NoError(t, tx.Commit(context.Background()))

	var stored string
	require.NoError(t, g.DB().QueryRow(
		"SELECT json_extract(props, '$.data') FROM nodes WHERE digest IS NOT NULL").Scan(&stored))
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), stored)
}
