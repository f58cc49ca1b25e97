package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
)

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("")
	assert.Equal(t, "batch-0001", g.Generate())
	assert.Equal(t, "batch-0002", g.Generate())

	g.Reset()
	assert.Equal(t, "batch-0001", g.Generate())

	assert.Equal(t, "run-0001", NewSequenceGenerator("run").Generate())
}

func TestSequenceGenerator_Concurrent(t *testing.T) {
	g := NewSequenceGenerator("c")
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(g.Generate(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
	assert.Equal(t, "c-0051", g.Generate())
}

func TestCubeScene_Keyable(t *testing.T) {
	doc := CubeScene()
	d := Dispatcher(doc)

	res := d.InsertKeys("Cube", []keying.Target{keying.WholeArray("location")}, 1, keying.Flags{}, fcurve.KeyKeyframe)
	require.Equal(t, 3, res.GetCount(keying.Success))
	assert.Equal(t, "batch-0001", res.BatchID)
}
