package slru

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, slots uint32) *Pool {
	t.Helper()
	dir := t.TempDir()
	p, err := New(Config{
		Name:            "test",
		Directory:       dir,
		SlotCount:       slots,
		PageSize:        8192,
		PagesPerSegment: 32,
		Recovery:        true,
		Precedes:        func(a, b uint32) bool { return a < b },
	})
	require.NoError(t, err)
	return p
}

// S1: miss-then-hit.
func TestReadPageMissThenHit(t *testing.T) {
	p := newTestPool(t, 4)

	dir := p.Directory()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "0000")
	buf := make([]byte, 32*8192)
	buf[5*8192] = 0xAB
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	p.Lock()
	idx1, b1, err := p.ReadPage(5, false)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), b1[0])
	p.Unlock()

	statsBefore := p.Stats()

	p.Lock()
	idx2, b2, err := p.ReadPage(5, false)
	require.NoError(t, err)
	p.Unlock()

	require.Equal(t, idx1, idx2)
	require.Equal(t, byte(0xAB), b2[0])
	statsAfter := p.Stats()
	require.Equal(t, statsBefore.Reads, statsAfter.Reads, "second read_page must not perform I/O")
	require.Equal(t, statsBefore.Hits+1, statsAfter.Hits)
}

// S2: LRU eviction picks the oldest non-latest page.
func TestLRUEvictionSkipsLatest(t *testing.T) {
	p := newTestPool(t, 4)

	pages := []uint32{0, 32, 64, 96, 128}
	for _, pn := range pages {
		p.Lock()
		_, _, err := p.ZeroPage(pn)
		require.NoError(t, err)
		p.Unlock()
	}

	require.False(t, p.PageExists(0), "page 0 should have been evicted")
	require.True(t, p.PageExists(128), "latest page must remain resident")

	p.mu.RLock()
	latest := p.latestPageNumber
	p.mu.RUnlock()
	require.Equal(t, uint32(128), latest)
}

// S3: dirty eviction writes the page through to disk.
func TestDirtyEvictionWritesThrough(t *testing.T) {
	p := newTestPool(t, 4)

	pages := []uint32{0, 32, 64, 96, 128}
	for _, pn := range pages {
		p.Lock()
		_, _, err := p.ZeroPage(pn)
		require.NoError(t, err)
		p.Unlock()
	}

	path := filepath.Join(p.Directory(), "0000")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, info.Size(), int64(8192))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, b := range contents[:8192] {
		require.Equal(t, byte(0), b)
	}
}

// S5: the read-only fast path never touches the exclusive lock on a hit.
func TestReadPageReadOnlyFastPath(t *testing.T) {
	p := newTestPool(t, 4)

	p.Lock()
	_, _, err := p.ZeroPage(10)
	require.NoError(t, err)
	p.Unlock()

	h, err := p.ReadPageReadOnly(10)
	require.NoError(t, err)
	require.False(t, h.exclusive, "a genuine hit must return holding only the shared lock")
	require.True(t, h.Valid)
	h.Release()
}

// S5 continued: a miss falls through and returns holding the exclusive lock.
func TestReadPageReadOnlyFallThrough(t *testing.T) {
	p := newTestPool(t, 4)

	h, err := p.ReadPageReadOnly(999)
	require.NoError(t, err)
	require.True(t, h.exclusive, "a miss must fall through to the exclusive path")
	h.Release()
}

// S6: truncate refuses when the latest page precedes the cutoff.
func TestTruncateWraparoundRefusal(t *testing.T) {
	p := newTestPool(t, 4)

	p.Lock()
	_, _, err := p.ZeroPage(0x00000010)
	require.NoError(t, err)
	p.Unlock()

	err = p.TruncateWithLock(0x80000010)
	require.Error(t, err)
	var wrapErr *ErrWraparound
	require.ErrorAs(t, err, &wrapErr)
	require.True(t, p.PageExists(0x00000010), "refused truncate must not evict any slot")
}

func TestTruncateCutoffZeroRemovesNothing(t *testing.T) {
	p := newTestPool(t, 4)

	p.Lock()
	_, _, err := p.ZeroPage(0x00000010)
	require.NoError(t, err)
	p.Unlock()
	require.NoError(t, p.Flush(false))

	require.NoError(t, p.TruncateWithLock(0x00000000))
	require.True(t, p.PageExists(0x00000010), "cutoff of 0 removes nothing under a<b ordering")
}

// Invariant 7: after a real truncate, no resident slot precedes the cutoff
// and no qualifying segment file remains on disk.
func TestTruncateEvictsAndUnlinksBelowCutoff(t *testing.T) {
	p := newTestPool(t, 4)

	p.Lock()
	_, _, err := p.ZeroPage(5)
	require.NoError(t, err)
	p.Unlock()
	require.NoError(t, p.Flush(false))

	p.Lock()
	_, _, err = p.ZeroPage(100)
	require.NoError(t, err)
	p.Unlock()

	require.NoError(t, p.TruncateWithLock(32))
	require.False(t, p.PageExists(5))
	_, err = os.Stat(filepath.Join(p.Directory(), "0000"))
	require.True(t, os.IsNotExist(err))
}

// Two independently-built pools with identical workloads must end up
// with identical stats snapshots field-for-field.
func TestStatsSnapshotDeterministic(t *testing.T) {
	run := func() StatsSnapshot {
		p := newTestPool(t, 4)
		for _, pn := range []uint32{0, 32, 64} {
			p.Lock()
			_, _, err := p.ZeroPage(pn)
			require.NoError(t, err)
			p.Unlock()
		}
		p.Lock()
		_, _, err := p.ReadPage(0, false)
		require.NoError(t, err)
		p.Unlock()
		return p.Stats()
	}

	a, b := run(), run()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("stats snapshots diverged (-a +b):\n%s", diff)
	}
}

// Invariant 6: a second flush with no intervening mutation writes nothing.
func TestFlushIdempotent(t *testing.T) {
	p := newTestPool(t, 4)

	p.Lock()
	_, _, err := p.ZeroPage(1)
	require.NoError(t, err)
	p.Unlock()

	require.NoError(t, p.Flush(true))
	before := p.Stats()
	require.NoError(t, p.Flush(true))
	after := p.Stats()
	require.Equal(t, before.Writes, after.Writes, "flush with nothing dirty must not write")
}

// Round-trip: zero, evict, re-read returns an all-zero page (invariant 5).
func TestZeroWriteEvictReadRoundTrip(t *testing.T) {
	p := newTestPool(t, 4)

	for _, pn := range []uint32{0, 32, 64, 96} {
		p.Lock()
		_, _, err := p.ZeroPage(pn)
		require.NoError(t, err)
		p.Unlock()
	}
	// Evict page 0 by forcing in a fifth page.
	p.Lock()
	_, _, err := p.ZeroPage(128)
	require.NoError(t, err)
	p.Unlock()
	require.False(t, p.PageExists(0))

	p.Lock()
	_, buf, err := p.ReadPage(0, false)
	require.NoError(t, err)
	p.Unlock()
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
}
