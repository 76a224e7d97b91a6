package rtp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceNext(t *testing.T) {
	var s Sequence
	assert.Equal(t, uint16(1), s.Next())
	assert.Equal(t, uint16(2), s.Next())
	assert.Equal(t, uint16(3), s.Next())
}

func TestSequenceWrapsAt16Bits(t *testing.T) {
	var s Sequence
	s.n.Store(0xFFFF)
	assert.Equal(t, uint16(0), s.Next())
	assert.Equal(t, uint16(1), s.Next())
}

func TestSequenceConcurrentNextNeverRepeats(t *testing.T) {
	var s Sequence
	const n = 500
	seen := make([]uint16, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = s.Next()
		}(i)
	}
	wg.Wait()

	unique := make(map[uint16]struct{}, n)
	for _, v := range seen {
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, n)
}
