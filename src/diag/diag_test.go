package diag_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tplc/src/diag"
)

func TestSinkAccumulatesWithoutAborting(t *testing.T) {
	s := diag.NewSink()
	s.Report(diag.Diagnostic{Message: "bad op", Line: 1, Col: 2, IsTypeError: true})
	s.Report(diag.Diagnostic{Message: "missing conversion", Line: 3, Col: 4})

	require.Equal(t, 2, s.Len())
	assert.True(t, s.HasTypeErrors())
	assert.Len(t, s.All(), 2)
}

func TestParallelSinkConcurrentAppend(t *testing.T) {
	ps := diag.NewParallelSink()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ps.Append(diag.Diagnostic{Message: "x", Line: n})
		}(i)
	}
	wg.Wait()
	ps.Stop()
	assert.Equal(t, 8, ps.Len())
	assert.Len(t, ps.Drain(), 8)
}
