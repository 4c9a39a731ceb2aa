package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryTryMark(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.TryMark("mint-a"), "first mark should win")
	assert.False(t, r.TryMark("mint-a"), "second mark should lose")
	assert.True(t, r.Seen("mint-a"))
	assert.False(t, r.Seen("mint-b"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryUnmark(t *testing.T) {
	r := NewRegistry()

	r.TryMark("mint-a")
	r.Unmark("mint-a")

	assert.False(t, r.Seen("mint-a"))
	assert.True(t, r.TryMark("mint-a"), "unmarked mint should be claimable again")
}

func TestRegistryConcurrentFirstWins(t *testing.T) {
	r := NewRegistry()

	const goroutines = 64
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryMark("contested") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one goroutine should win the mark")
}

func TestRegistryManyMints(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 1000; i++ {
		assert.True(t, r.TryMark(fmt.Sprintf("mint-%d", i)))
	}
	assert.Equal(t, 1000, r.Len())
}
