package utils

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	tomb "gopkg.in/tomb.v2"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	var tb tomb.Tomb
	pool := NewWorkerPool(3)

	var sum atomic.Int64
	var wg sync.WaitGroup
	pool.Setup(&tb, func(_ *tomb.Tomb, task any) error {
		defer wg.Done()
		sum.Add(int64(task.(int)))
		return nil
	})

	for i := 1; i <= 10; i++ {
		wg.Add(1)
		assert.True(t, pool.AddTask(&tb, i))
	}
	wg.Wait()

	tb.Kill(nil)
	assert.NoError(t, tb.Wait())
	assert.Equal(t, int64(55), sum.Load())
	assert.False(t, pool.AddTask(&tb, 11))
}

func TestWorkerPool_FatalError(t *testing.T) {
	var tb tomb.Tomb
	pool := NewWorkerPool(2)
	boom := errors.New("boom")

	pool.Setup(&tb, func(_ *tomb.Tomb, _ any) error {
		return boom
	})
	pool.AddTask(&tb, struct{}{})

	assert.ErrorIs(t, tb.Wait(), boom)
}

func TestNewWorkerPool_AtLeastOneWorker(t *testing.T) {
	assert.Equal(t, 1, NewWorkerPool(0).Size())
}
