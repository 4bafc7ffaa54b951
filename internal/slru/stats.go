package slru

import "sync/atomic"

// Stats holds the pool's running counters. All fields are written with
// the atomic package so readers never need the control lock.
type Stats struct {
	hits          uint64
	misses        uint64
	reads         uint64
	writes        uint64
	evictions     uint64
	flushRequests uint64
	flushFailures uint64
}

// StatsSnapshot is a point-in-time copy safe to read without further
// synchronisation.
type StatsSnapshot struct {
	Hits, Misses               uint64
	Reads, Writes              uint64
	Evictions                  uint64
	FlushRequests, FlushFailed uint64
}

func (s *Stats) recordHit()       { atomic.AddUint64(&s.hits, 1) }
func (s *Stats) recordMiss()      { atomic.AddUint64(&s.misses, 1) }
func (s *Stats) recordRead()      { atomic.AddUint64(&s.reads, 1) }
func (s *Stats) recordWrite()     { atomic.AddUint64(&s.writes, 1) }
func (s *Stats) recordEviction()  { atomic.AddUint64(&s.evictions, 1) }
func (s *Stats) recordFlush(ok bool) {
	atomic.AddUint64(&s.flushRequests, 1)
	if !ok {
		atomic.AddUint64(&s.flushFailures, 1)
	}
}

// HitRatio reports the fraction of page lookups served from cache.
func (s *Stats) HitRatio() float64 {
	h := atomic.LoadUint64(&s.hits)
	m := atomic.LoadUint64(&s.misses)
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// HitRatio reports the fraction of page lookups served from cache.
func (s StatsSnapshot) HitRatio() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Snapshot copies all counters atomically field-by-field.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:          atomic.LoadUint64(&s.hits),
		Misses:        atomic.LoadUint64(&s.misses),
		Reads:         atomic.LoadUint64(&s.reads),
		Writes:        atomic.LoadUint64(&s.writes),
		Evictions:     atomic.LoadUint64(&s.evictions),
		FlushRequests: atomic.LoadUint64(&s.flushRequests),
		FlushFailed:   atomic.LoadUint64(&s.flushFailures),
	}
}
