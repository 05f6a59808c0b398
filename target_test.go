package tplmgr

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterTarget_Append(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tgt := NewWriterTarget(&buf)
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			assert.NoError(t, tgt.Append("<li></li>"))
		})
	}
	wg.Wait()
	assert.Equal(t, 10*len("<li></li>"), buf.Len())
}

func TestTargetFunc_Append(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var got string
	require.NoError(t, TargetFunc(func(s string) error { got = s; return nil }).Append("x"))
	assert.Equal(t, "x", got)
	assert.ErrorIs(t, TargetFunc(func(string) error { return boom }).Append("x"), boom)
}
