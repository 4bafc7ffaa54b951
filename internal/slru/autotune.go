package slru

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/zhukovaskychina/slrupool/logger"
)

// memReader is the gopsutil call the tuner depends on, narrowed to an
// interface so tests can substitute a fake memory-pressure reading
// instead of depending on the real host.
type memReader func() (*mem.VirtualMemoryStat, error)

// AutoTuner periodically widens or narrows a Pool's flush handle cache
// in response to host memory pressure: plentiful free memory lets a
// checkpoint hold more open segment handles at once, tight memory backs
// it off toward MinHandles.
type AutoTuner struct {
	pool *Pool
	read memReader

	windowSize time.Duration

	minHandles, maxHandles int
	highWaterPercent       float64 // above this used-percent, shrink
	lowWaterPercent        float64 // below this used-percent, grow

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewAutoTuner builds a tuner for pool using real host memory stats.
func NewAutoTuner(pool *Pool, windowSize time.Duration, minHandles, maxHandles int) *AutoTuner {
	if windowSize <= 0 {
		windowSize = 5 * time.Minute
	}
	if minHandles < 1 {
		minHandles = 1
	}
	if maxHandles < minHandles {
		maxHandles = minHandles
	}
	return &AutoTuner{
		pool:             pool,
		read:             mem.VirtualMemory,
		windowSize:       windowSize,
		minHandles:       minHandles,
		maxHandles:       maxHandles,
		highWaterPercent: 85,
		lowWaterPercent:  60,
		stop:             make(chan struct{}),
	}
}

// Start launches the tuning loop in its own goroutine. Call Stop to end it.
func (at *AutoTuner) Start() {
	go at.loop()
}

// Stop ends the tuning loop. Calls after the first are no-ops.
func (at *AutoTuner) Stop() {
	at.mu.Lock()
	defer at.mu.Unlock()
	if at.stopped {
		return
	}
	at.stopped = true
	close(at.stop)
}

func (at *AutoTuner) loop() {
	ticker := time.NewTicker(at.windowSize)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			at.adjust()
		case <-at.stop:
			return
		}
	}
}

func (at *AutoTuner) adjust() {
	vm, err := at.read()
	if err != nil {
		logger.Warnf("slru: %s autotune: memory stat read failed: %v", at.pool.Name(), err)
		return
	}

	current := at.pool.MaxFlushHandles()
	next := current
	switch {
	case vm.UsedPercent >= at.highWaterPercent && current > at.minHandles:
		next = current - 1
	case vm.UsedPercent <= at.lowWaterPercent && current < at.maxHandles:
		next = current + 1
	}
	if next != current {
		at.pool.SetMaxFlushHandles(next)
		logger.Infof("slru: %s autotune: max flush handles %d -> %d (mem used %.1f%%)",
			at.pool.Name(), current, next, vm.UsedPercent)
	}
}
