package slru

import (
	"os"

	jujuerrors "github.com/juju/errors"
)

// flushContext batches the open segment file handles a checkpoint touches
// so consecutive dirty pages in the same segment share one fsync instead
// of one each. It caches at most maxHandles open files; beyond that it
// falls back to a one-shot open/write/close per page, same as a bare
// eviction.
type flushContext struct {
	pool    *Pool
	handles map[uint32]*os.File
	order   []uint32 // insertion order, so the first-failing segment is deterministic
	maxOpen int

	firstErr error
}

func newFlushContext(p *Pool) *flushContext {
	return &flushContext{
		pool:    p,
		handles: make(map[uint32]*os.File),
		maxOpen: p.MaxFlushHandles(),
	}
}

// write performs one page write within the checkpoint, using a cached
// handle for the page's segment when the cache has room, otherwise a
// one-shot open exactly like physicalWrite's default path.
func (fc *flushContext) write(p *Pool, pageno uint32, buf []byte, maxLSN uint64) error {
	if maxLSN != 0 {
		if err := p.cfg.WAL.FlushUpTo(LSN(maxLSN)); err != nil {
			panicWALFlushFatal(LSN(maxLSN), err)
		}
	}

	segment, offset := p.segmentAndOffset(pageno)
	path := p.segmentPath(segment)

	f, ok := fc.handles[segment]
	if !ok {
		if len(fc.handles) >= fc.maxOpen {
			// maxLSN 0: the WAL flush above already covers this page, no
			// need for physicalWrite to re-check and flush it again.
			return p.physicalWrite(pageno, buf, 0, true)
		}
		var err error
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
		if err != nil {
			return newIOError(CauseOpen, pageno, path, offset, err)
		}
		fc.handles[segment] = f
		fc.order = append(fc.order, segment)
	}

	if _, err := f.WriteAt(buf, offset); err != nil {
		return newIOError(CauseWrite, pageno, path, offset, err)
	}
	p.stats.recordWrite()
	return nil
}

// closeAll fsyncs and closes every cached handle, recording the first
// failure (by segment insertion order) as the checkpoint's aggregate
// error. It always attempts every handle, even after a failure, so a
// slow disk on one segment never leaves another segment's handle
// dangling open.
func (fc *flushContext) closeAll() error {
	for _, segment := range fc.order {
		f := fc.handles[segment]
		if fc.pool.cfg.FsyncEnabled {
			if err := f.Sync(); err != nil && fc.firstErr == nil {
				fc.firstErr = newIOError(CauseFsync, 0, fc.pool.segmentPath(segment), 0, err)
			}
		}
		if err := f.Close(); err != nil && fc.firstErr == nil {
			fc.firstErr = newIOError(CauseClose, 0, fc.pool.segmentPath(segment), 0, err)
		}
	}
	return fc.firstErr
}

// Flush writes every dirty slot, batching segment handles when
// isCheckpoint is true, then fsyncs and closes them all. Flush acquires
// the control lock itself, so the caller must not hold it; the lock is
// released while waiting on I/O for each page (writePage's usual
// contract) and released again on return.
func (p *Pool) Flush(isCheckpoint bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fc *flushContext
	if isCheckpoint {
		fc = newFlushContext(p)
	}

	var firstErr error
	for idx := range p.slots {
		if err := p.writePage(idx, fc); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if fc != nil {
		if err := fc.closeAll(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return jujuerrors.Trace(firstErr)
	}
	return nil
}
