package harness

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompletionGateCountsDownToZero(t *testing.T) {
	g := NewCompletionGate(2)
	assert.Equal(t, 2, g.Expected())
	assert.Equal(t, 2, g.Count())
	assert.False(t, g.Await(time.Millisecond*10))

	assert.True(t, g.CountDown())
	assert.Equal(t, 1, g.Count())
	assert.False(t, g.Await(time.Millisecond*10))

	assert.True(t, g.CountDown())
	assert.Equal(t, 0, g.Count())
	assert.True(t, g.Await(time.Millisecond*10))
}

func TestCompletionGateNeverGoesBelowZero(t *testing.T) {
	g := NewCompletionGate(1)
	assert.True(t, g.CountDown())
	assert.False(t, g.CountDown())
	assert.False(t, g.CountDown())
	assert.Equal(t, 0, g.Count())
}

func TestCompletionGateWithNonPositiveCountStartsOpen(t *testing.T) {
	for _, n := range []int{0, -1} {
		g := NewCompletionGate(n)
		assert.Equal(t, 0, g.Count())
		assert.Equal(t, 0, g.Expected())
		assert.True(t, g.Await(0))
		assert.False(t, g.CountDown())
	}
}

func TestCompletionGateConcurrentCountDown(t *testing.T) {
	g := NewCompletionGate(50)
	var wg sync.WaitGroup
	var succeeded sync.Map
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if g.CountDown() {
				succeeded.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	succeeded.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	assert.Equal(t, 50, count)
	assert.Equal(t, 0, g.Count())
	assert.True(t, g.Await(time.Second))
}

func TestCompletionGateReleasesWaiter(t *testing.T) {
	g := NewCompletionGate(1)
	go func() {
		time.Sleep(time.Millisecond * 20)
		g.CountDown()
	}()
	assert.True(t, g.Await(time.Second))
}
