package slru

import (
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/require"
)

func TestAutoTunerShrinksUnderMemoryPressure(t *testing.T) {
	p := newTestPool(t, 2)
	p.SetMaxFlushHandles(10)

	at := NewAutoTuner(p, time.Hour, 1, 20)
	at.read = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 95}, nil
	}

	at.adjust()
	require.Equal(t, 9, p.MaxFlushHandles())
}

func TestAutoTunerGrowsUnderLowPressure(t *testing.T) {
	p := newTestPool(t, 2)
	p.SetMaxFlushHandles(5)

	at := NewAutoTuner(p, time.Hour, 1, 20)
	at.read = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 10}, nil
	}

	at.adjust()
	require.Equal(t, 6, p.MaxFlushHandles())
}

func TestAutoTunerRespectsBounds(t *testing.T) {
	p := newTestPool(t, 2)
	p.SetMaxFlushHandles(1)

	at := NewAutoTuner(p, time.Hour, 1, 20)
	at.read = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 99}, nil
	}

	at.adjust()
	require.Equal(t, 1, p.MaxFlushHandles(), "must not shrink below minHandles")
}
