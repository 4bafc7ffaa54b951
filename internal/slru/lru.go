package slru

import "sync/atomic"

func (s *slot) tick() int64        { return atomic.LoadInt64(&s.lruTick) }
func (s *slot) setTick(v int64)    { atomic.StoreInt64(&s.lruTick, v) }

// touch marks a slot recently used. It is safe to call while holding
// only a shared control lock: the slot's tick is an atomic word, so
// concurrent touches from multiple readers never tear — at worst they
// race each other to the same value, which selectSlot's repair step
// (delta < 0) already tolerates.
func (p *Pool) touch(s *slot) {
	cur := atomic.LoadInt64(&p.currentLRUTick)
	if s.tick() != cur {
		s.setTick(cur + 1)
	}
}

// selectSlot picks a slot for pageno using an LRU-with-latest-pin
// policy. The caller must hold the control lock exclusively. It returns the index of a slot that either already
// holds pageno, or is legally reusable for it (EMPTY, or VALID+clean,
// possibly just write-evicted).
func (p *Pool) selectSlot(pageno uint32) (int, error) {
	for {
		if idx, ok := p.index[pageno]; ok {
			return idx, nil
		}

		p.currentLRUTick++
		cur := p.currentLRUTick

		bestIdx := -1
		var bestDelta int64 = -1
		for i, s := range p.slots {
			delta := cur - s.tick()
			if delta < 0 {
				s.setTick(cur)
				delta = 0
			}
			if s.status == StatusEmpty {
				return i, nil
			}
			if p.hasLatest && s.pageNumber == p.latestPageNumber {
				continue
			}
			if bestIdx < 0 || delta > bestDelta ||
				(delta == bestDelta && p.cfg.Precedes(s.pageNumber, p.slots[bestIdx].pageNumber)) {
				bestDelta = delta
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			// Every slot holds the latest page — impossible with
			// SlotCount > 1; the latest page is never evicted.
			panic("slru: no evictable slot found (latest page pins all candidates)")
		}

		victim := p.slots[bestIdx]
		switch victim.status {
		case StatusValid:
			if !victim.dirty {
				return bestIdx, nil
			}
			if err := p.writeEvict(bestIdx); err != nil {
				return 0, err
			}
		case StatusReadInProgress, StatusWriteInProgress:
			p.waitForIO(bestIdx)
		}
		// Anything may have changed; restart from the top.
	}
}
