package slru

import "github.com/zhukovaskychina/slrupool/logger"

// Truncate discards every page strictly before cutoff, rounded down to
// its containing segment's boundary, then unlinks the now-fully-stale
// segment files. The control lock must already be held exclusively (see
// TruncateWithLock for the convenience wrapper).
//
// Truncate refuses (logs and returns an *ErrWraparound, never panics)
// when latestPageNumber precedes cutoff under the pool's Precedes order
// (the cutoff appears to lie after the latest page) — the wraparound-safety invariant that protects
// against discarding the page currently being extended.
func (p *Pool) Truncate(cutoff uint32) error {
	if p.hasLatest && p.cfg.Precedes(p.latestPageNumber, cutoff) {
		return newWraparoundError(p.latestPageNumber, cutoff)
	}

	cutoffSegment := cutoff / p.cfg.PagesPerSegment
	boundary := cutoffSegment * p.cfg.PagesPerSegment

	for {
		restart := false
		for idx, s := range p.slots {
			if s.status == StatusEmpty {
				continue
			}
			if !p.cfg.Precedes(s.pageNumber, boundary) {
				continue
			}
			switch s.status {
			case StatusReadInProgress, StatusWriteInProgress:
				p.waitForIO(idx)
				restart = true
			case StatusValid:
				delete(p.index, s.pageNumber)
				s.status = StatusEmpty
				s.dirty = false
			}
			if restart {
				break
			}
		}
		if !restart {
			break
		}
	}

	found, err := p.ScanDirectory(boundary, true)
	if err != nil {
		return err
	}
	if found {
		logger.Infof("slru: %s truncated below page %d (segment boundary %d)", p.cfg.Name, cutoff, boundary)
	}
	return nil
}

// TruncateWithLock acquires the control lock, runs Truncate, and
// releases it — the entry point for callers (the per-log façades) that
// are not already mid-operation on this pool.
func (p *Pool) TruncateWithLock(cutoff uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Truncate(cutoff)
}
