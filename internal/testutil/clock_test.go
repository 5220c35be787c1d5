package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqClock_Monotonic(t *testing.T) {
	c := NewSeqClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestSeqClock_Reset(t *testing.T) {
	c := NewSeqClock()
	c.Next()
	c.Next()
	c.Reset()
	assert.Equal(t, int64(1), c.Next())
}

func TestSeqClock_Concurrent(t *testing.T) {
	c := NewSeqClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}
