package slru

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Concurrent readers of the same hot page, racing one writer that keeps
// re-dirtying it, must never observe a torn buffer and must leave the
// pool's invariants intact (invariant 1, 2, 3). Run with -race.
func TestConcurrentReadersOneWriter(t *testing.T) {
	p := newTestPool(t, 2)

	p.Lock()
	_, _, err := p.ZeroPage(1)
	require.NoError(t, err)
	p.Unlock()

	var wg sync.WaitGroup
	const readers = 16
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h, err := p.ReadPageReadOnly(1)
				if err != nil {
					t.Error(err)
					return
				}
				_ = h.Buffer[0]
				h.Release()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			p.Lock()
			idx, buf, err := p.ReadPage(1, true)
			if err != nil {
				p.Unlock()
				t.Error(err)
				return
			}
			buf[0] = byte(j)
			p.MarkDirty(idx, -1, 0)
			p.Unlock()

			p.Lock()
			_ = p.writeEvict(idx)
			p.Unlock()
		}
	}()

	wg.Wait()
	require.True(t, p.PageExists(1))
}

// Many goroutines zeroing the same page concurrently serialise on the
// control lock, all succeed, and leave the page resident.
func TestConcurrentZeroPageSamePage(t *testing.T) {
	p := newTestPool(t, 2)

	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p.Lock()
			_, _, err := p.ZeroPage(7)
			p.Unlock()
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.True(t, p.PageExists(7))
}
