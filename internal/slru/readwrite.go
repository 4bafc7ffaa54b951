package slru

// Lock/Unlock/RLock/RUnlock expose the pool's control lock directly so a
// per-log façade can hold it across a multi-step operation — e.g. zero a
// page, populate it, mark it dirty — since ZeroPage/ReadPage/WritePage
// all assume control is held on entry and exit. Lock ordering is
// control > slot; callers must never acquire a slot lock themselves.
func (p *Pool) Lock()    { p.mu.Lock() }
func (p *Pool) Unlock()  { p.mu.Unlock() }
func (p *Pool) RLock()   { p.mu.RLock() }
func (p *Pool) RUnlock() { p.mu.RUnlock() }

// ZeroPage creates a fresh, all-zero, dirty page and pins it as the
// latest page. The caller must hold the control lock exclusively (see
// Lock) and continues to hold it on return.
func (p *Pool) ZeroPage(pageno uint32) (int, []byte, error) {
	idx, err := p.selectSlot(pageno)
	if err != nil {
		return 0, nil, err
	}
	s := p.slots[idx]
	if s.status != StatusEmpty && s.pageNumber != pageno {
		delete(p.index, s.pageNumber)
	}
	for i := range s.buffer {
		s.buffer[i] = 0
	}
	for i := range s.groupLSN {
		s.groupLSN[i] = 0
	}
	s.pageNumber = pageno
	s.status = StatusValid
	s.dirty = true
	s.recovered = false
	p.index[pageno] = idx
	p.latestPageNumber = pageno
	p.hasLatest = true
	p.touch(s)
	return idx, s.buffer, nil
}

// ReadPage reads pageno, bringing it into cache on a miss. The caller
// must hold the control lock exclusively on entry and it remains held
// on return (success or failure).
func (p *Pool) ReadPage(pageno uint32, writeOK bool) (int, []byte, error) {
	idx, buf, _, err := p.readPageLocked(pageno, writeOK)
	return idx, buf, err
}

// PageHandle is returned by ReadPageReadOnly. It owns whichever control
// lock mode its path ended up holding — the fast path keeps the shared
// lock it started with, marking the slot recently-used and returning
// while still holding it; the fall-through path re-acquires exclusive.
// The caller must call Release exactly once.
type PageHandle struct {
	pool      *Pool
	Index     int
	Buffer    []byte
	Valid     bool
	exclusive bool
}

// Release drops whichever control lock mode this handle holds.
func (h *PageHandle) Release() {
	if h.exclusive {
		h.pool.Unlock()
	} else {
		h.pool.RUnlock()
	}
}

// ReadPageReadOnly reads pageno without ever requiring the exclusive
// control lock on a hit. The control lock must NOT be held on entry. The
// returned handle holds some control lock on success; call Release when
// done with the buffer. Valid is false only when the page was produced
// by the recovery-mode zero-fill of a missing segment file, not a
// genuine on-disk read.
func (p *Pool) ReadPageReadOnly(pageno uint32) (*PageHandle, error) {
	p.mu.RLock()
	if i, ok := p.index[pageno]; ok {
		s := p.slots[i]
		if s.status != StatusEmpty && s.status != StatusReadInProgress {
			p.stats.recordHit()
			p.touch(s)
			return &PageHandle{pool: p, Index: i, Buffer: s.buffer, Valid: !s.recovered}, nil
		}
	}
	p.mu.RUnlock()

	p.mu.Lock()
	idx, buf, valid, err := p.readPageLocked(pageno, true)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	return &PageHandle{pool: p, Index: idx, Buffer: buf, Valid: valid, exclusive: true}, nil
}

// readPageLocked is the shared core of ReadPage and the exclusive-path
// fallback of ReadPageReadOnly. The control lock must be held exclusively
// on entry; it remains held on return.
func (p *Pool) readPageLocked(pageno uint32, writeOK bool) (int, []byte, bool, error) {
	for {
		idx, err := p.selectSlot(pageno)
		if err != nil {
			return 0, nil, false, err
		}
		s := p.slots[idx]
		hit := s.pageNumber == pageno && s.status != StatusEmpty

		if hit {
			switch {
			case s.status == StatusValid:
				p.stats.recordHit()
				p.touch(s)
				return idx, s.buffer, !s.recovered, nil
			case s.status == StatusWriteInProgress && writeOK:
				p.stats.recordHit()
				p.touch(s)
				return idx, s.buffer, !s.recovered, nil
			default:
				// READ_IN_PROGRESS, or WRITE_IN_PROGRESS without
				// permission to read a dirty page mid-write.
				p.waitForIO(idx)
				continue
			}
		}

		// EMPTY, or VALID+clean and not yet holding pageno: claim it.
		if s.status != StatusEmpty {
			delete(p.index, s.pageNumber)
		}
		s.status = StatusReadInProgress
		s.pageNumber = pageno
		s.dirty = false
		p.index[pageno] = idx
		p.touch(s)

		s.slotLock.Lock() // guaranteed not to block: no one else holds it
		p.mu.Unlock()
		recovered, ioErr := p.physicalRead(pageno, s.buffer)
		p.mu.Lock()

		p.stats.recordRead()
		if ioErr != nil {
			s.status = StatusEmpty
			delete(p.index, pageno)
			s.slotLock.Unlock()
			p.stats.recordMiss()
			return 0, nil, false, ioErr
		}
		s.status = StatusValid
		s.recovered = recovered
		s.slotLock.Unlock()
		p.stats.recordMiss()
		p.touch(s)
		return idx, s.buffer, !recovered, nil
	}
}

// WritePage writes the slot at idx back to its segment file if dirty.
// The control lock must be held exclusively on entry and remains held on
// return. fc is nil for a one-shot write (eviction, or an ad hoc write
// call); during a checkpoint it is the shared flushContext batching
// segment handles across slots.
func (p *Pool) WritePage(idx int, fc *flushContext) error {
	return p.writePage(idx, fc)
}

// writeEvict is WritePage's internal caller from the LRU selector —
// identical protocol, different call site.
func (p *Pool) writeEvict(idx int) error {
	err := p.writePage(idx, nil)
	if err == nil {
		p.stats.recordEviction()
	}
	return err
}

func (p *Pool) writePage(idx int, fc *flushContext) error {
	s := p.slots[idx]
	pageno := s.pageNumber

	for s.status == StatusWriteInProgress && s.pageNumber == pageno {
		p.waitForIO(idx)
	}
	if s.pageNumber != pageno || s.status != StatusValid || !s.dirty {
		return nil // nothing to do: clean, or the slot has been repurposed
	}

	s.status = StatusWriteInProgress
	s.dirty = false // re-dirty-during-write becomes visible post-write
	maxLSN := s.maxLSN()

	s.slotLock.Lock()
	p.mu.Unlock()

	var ioErr error
	if fc != nil {
		ioErr = fc.write(p, pageno, s.buffer, maxLSN)
	} else {
		ioErr = p.physicalWrite(pageno, s.buffer, maxLSN, true)
	}

	p.mu.Lock()
	if ioErr != nil {
		// Durability contract: the page is still dirty, retry is possible.
		s.dirty = true
		s.status = StatusValid
		s.slotLock.Unlock()
		p.stats.recordFlush(false)
		return ioErr
	}
	s.status = StatusValid
	s.recovered = false
	s.slotLock.Unlock()
	p.stats.recordFlush(true)
	return nil
}

// waitForIO blocks until the I/O in progress on slot idx completes, or
// detects and repairs a slot left stuck by a goroutine that died without
// cleaning up. The control lock must be held exclusively on entry; it is
// released and re-acquired internally, and held again on return. Anything
// about the slot may have changed by the time this returns — callers must
// restart their scan.
func (p *Pool) waitForIO(idx int) {
	s := p.slots[idx]

	p.mu.Unlock()
	s.slotLock.RLock()
	s.slotLock.RUnlock()
	p.mu.Lock()

	if s.status != StatusReadInProgress && s.status != StatusWriteInProgress {
		return
	}
	// Still in progress after a real wait: the prior I/O goroutine may
	// have died without cleaning up. A successful non-blocking shared
	// acquire proves no one holds the slot lock exclusively any more.
	if s.slotLock.TryRLock() {
		switch s.status {
		case StatusReadInProgress:
			delete(p.index, s.pageNumber)
			s.status = StatusEmpty
		case StatusWriteInProgress:
			s.status = StatusValid
			s.dirty = true
		}
		s.slotLock.RUnlock()
	}
}

// MarkDirty marks the slot at idx dirty and, if lsnGroup is a valid group
// index, raises that page's group-LSN entry to lsn when lsn is larger, so
// a subsequent write knows whether
// it must flush the WAL first. The control lock must be held exclusively
// on entry (as it is after ZeroPage/ReadPage/ReadPageReadOnly's
// exclusive path).
func (p *Pool) MarkDirty(idx int, lsnGroup int, lsn uint64) {
	s := p.slots[idx]
	s.dirty = true
	if lsnGroup >= 0 && lsnGroup < len(s.groupLSN) && lsn > s.groupLSN[lsnGroup] {
		s.groupLSN[lsnGroup] = lsn
	}
}

// PageExists reports whether pageno is currently resident with a
// non-EMPTY status.
func (p *Pool) PageExists(pageno uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.index[pageno]
	return ok
}
