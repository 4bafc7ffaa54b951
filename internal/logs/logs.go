// Package logs provides the per-subsystem façades (CLOG, SUBTRANS,
// MultiXact offsets/members, distributed-transaction log) that sit on top
// of one internal/slru.Pool each. The cache underneath is oblivious to
// what bits a page holds; everything in this package is mechanical
// bit-packing and transaction-id wraparound arithmetic layered on top.
package logs

import (
	"github.com/zhukovaskychina/slrupool/internal/slru"
)

// Log is the façade every per-subsystem log implements over its own
// *slru.Pool.
type Log interface {
	Name() string
	ZeroPage(pageno uint32) (int, error)
	ReadPage(pageno uint32, writeOK bool) (int, error)
	WritePage(slot int) error
	Checkpoint() error
	Truncate(cutoff uint32) error
}

// precedes32 is the classic modular transaction-id ordering: a precedes b
// iff a is "in the past" relative to b across one half of the 32-bit
// space, the same wraparound-safe rule every one of these logs needs for
// both LRU tie-breaks and truncation safety.
func precedes32(a, b uint32) bool {
	return int32(a-b) < 0
}

// basePage is embedded by each façade; it forwards the mechanical half of
// the Log interface to the underlying pool and leaves only the
// bit-packing specifics to the concrete type.
type basePage struct {
	pool *slru.Pool
}

func (b *basePage) Name() string { return b.pool.Name() }

func (b *basePage) ZeroPage(pageno uint32) (int, error) {
	b.pool.Lock()
	defer b.pool.Unlock()
	idx, _, err := b.pool.ZeroPage(pageno)
	return idx, err
}

func (b *basePage) ReadPage(pageno uint32, writeOK bool) (int, error) {
	b.pool.Lock()
	defer b.pool.Unlock()
	idx, _, err := b.pool.ReadPage(pageno, writeOK)
	return idx, err
}

func (b *basePage) WritePage(slot int) error {
	b.pool.Lock()
	defer b.pool.Unlock()
	return b.pool.WritePage(slot, nil)
}

func (b *basePage) Checkpoint() error { return b.pool.Flush(true) }

func (b *basePage) Truncate(cutoff uint32) error { return b.pool.TruncateWithLock(cutoff) }

// withPageReadOnly runs fn against the current buffer for pageno under
// the shared control lock on a cache hit (exclusive on a miss), releasing
// whatever lock mode
// ReadPageReadOnly actually ended up taking.
func withPageReadOnly(pool *slru.Pool, pageno uint32, fn func(buf []byte)) error {
	h, err := pool.ReadPageReadOnly(pageno)
	if err != nil {
		return err
	}
	defer h.Release()
	fn(h.Buffer)
	return nil
}

// withPageForWrite runs fn against the buffer for pageno under the
// exclusive control lock and marks the page dirty afterward. lsnGroup < 0
// skips LSN bookkeeping (the log has no WAL-before-data requirement).
func withPageForWrite(pool *slru.Pool, pageno uint32, lsnGroup int, lsn uint64, fn func(buf []byte)) error {
	pool.Lock()
	defer pool.Unlock()
	idx, buf, err := pool.ReadPage(pageno, true)
	if err != nil {
		return err
	}
	fn(buf)
	pool.MarkDirty(idx, lsnGroup, lsn)
	return nil
}
