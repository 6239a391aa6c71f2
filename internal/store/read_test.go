package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/testutil"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAll(ctx, testutil.SampleTuples()...))
	require.NoError(t, s.Commit(ctx))
	return s
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Get(context.Background(), testutil.Rui(404))
	assert.Nil(t, got)
	assert.True(t, mapper.IsNotFound(err))
}

func TestGet_Placeholder(t *testing.T) {
	s := seededStore(t)

	got, err := s.Get(context.Background(), testutil.Rui(2))
	assert.Nil(t, got)
	assert.True(t, mapper.IsNotTuple(err))
}

func TestGetByAuthor_Scenario(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := testutil.Rui(100)
	an := ir.AN{Rui: testutil.Rui(101), Status: ir.RuiAssigned, Unique: ir.PorSingular, Ruin: author}
	di := ir.DI{Rui: testutil.Rui(102), T: testutil.SampleTime, Reason: ir.ReasonRealityChange,
		Ruit: an.Rui, Ruia: author, Ruid: author}

	require.NoError(t, s.Save(ctx, an))
	require.NoError(t, s.Save(ctx, di))
	require.NoError(t, s.Commit(ctx))

	got, err := s.GetByAuthor(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, []ir.Tuple{an}, got)
}

func TestGetByAuthor_None(t *testing.T) {
	s := seededStore(t)

	got, err := s.GetByAuthor(context.Background(), testutil.Rui(2))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetByReferent(t *testing.T) {
	s := seededStore(t)

	got, err := s.GetByReferent(context.Background(), testutil.Rui(4))
	require.NoError(t, err)

	var ruis []ir.Rui
	for _, tu := range got {
		ruis = append(ruis, tu.ID())
	}
	assert.Equal(t, []ir.Rui{testutil.Rui(3), testutil.Rui(13), testutil.Rui(14), testutil.Rui(20)}, ruis)
}

func TestGetByType(t *testing.T) {
	s := seededStore(t)

	got, err := s.GetByType(context.Background(), ir.TypeNtoC)
	require.NoError(t, err)
	assert.Equal(t, []ir.Tuple{testutil.Sample(ir.TypeNtoC)}, got)

	_, err = s.GetByType(context.Background(), "XX")
	assert.Error(t, err)
}

func TestQuery_DecodesMatches(t *testing.T) {
	s := seededStore(t)
	no := false

	got, err := s.Query(context.Background(), mapper.Filter{Polarity: &no})
	require.NoError(t, err)
	assert.Equal(t, []ir.Tuple{testutil.Sample(ir.TypeNtoR)}, got)
}

func TestAvailableRuis_EachOnce(t *testing.T) {
	s := seededStore(t)

	ruis, err := s.AvailableRuis(context.Background())
	require.NoError(t, err)

	seen := map[string]int{}
	for _, r := range ruis {
		seen[r.String()]++
	}
	for _, tu := range testutil.SampleTuples() {
		assert.Equal(t, 1, seen[tu.ID().String()], "rui %s", tu.ID())
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "rui %s listed %d times", k, n)
	}
	// The calendar value shared by DI, NtoN, NtoC and NtoLackR is one node.
	assert.Equal(t, 1, seen[ir.NewISORui(testutil.SampleTime).String()])
}
