package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/ir"
)

func TestRui_Format(t *testing.T) {
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", Rui(1).String())
	assert.Equal(t, "00000000-0000-7000-8000-000000000042", Rui(42).String())

	parsed, err := ir.ParseRui(Rui(7).String())
	require.NoError(t, err)
	assert.Equal(t, Rui(7), parsed)
}

func TestRuiSequence_NextAndReset(t *testing.T) {
	seq := NewRuiSequence()
	assert.Equal(t, Rui(1), seq.Next())
	assert.Equal(t, Rui(2), seq.Next())

	seq.Reset()
	assert.Equal(t, Rui(1), seq.Next())
}

func TestRuiSequence_ThreadSafe(t *testing.T) {
	seq := NewRuiSequence()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				r := seq.Next().String()
				mu.Lock()
				seen[r] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
