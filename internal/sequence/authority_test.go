package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthority_NextIsMonotonic(t *testing.T) {
	a := New()
	assert.Equal(t, uint64(0), a.Current())
	assert.Equal(t, uint64(1), a.Next())
	assert.Equal(t, uint64(2), a.Next())
	assert.Equal(t, uint64(2), a.Current())
}

func TestAuthority_NewFromAndSet(t *testing.T) {
	a := NewFrom(100)
	assert.Equal(t, uint64(100), a.Current())
	assert.Equal(t, uint64(101), a.Next())

	a.Set(500)
	assert.Equal(t, uint64(500), a.Current())
	assert.Equal(t, uint64(501), a.Next())
}

func TestAuthority_ConcurrentNextNeverDuplicates(t *testing.T) {
	a := New()
	const n = 1000
	seen := make(chan uint64, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			seen <- a.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool, n)
	for v := range seen {
		assert.False(t, unique[v], "sequence id %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
	assert.Equal(t, uint64(n), a.Current())
}
