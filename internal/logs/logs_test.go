package logs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/slrupool/internal/slru"
)

func testConfig(t *testing.T) slru.Config {
	t.Helper()
	return slru.Config{
		Directory: t.TempDir(),
		SlotCount: 8,
		PageSize:  8192,
		Recovery:  true,
	}
}

func TestCLOGLogSetAndGetStatus(t *testing.T) {
	c, err := NewCLOGLog(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, c.SetStatus(42, XactCommitted))
	require.NoError(t, c.SetStatus(43, XactAborted))

	got, err := c.GetStatus(42)
	require.NoError(t, err)
	require.Equal(t, XactCommitted, got)

	got, err = c.GetStatus(43)
	require.NoError(t, err)
	require.Equal(t, XactAborted, got)

	// An untouched xid on a zero-filled (recovery) page reads in-progress.
	got, err = c.GetStatus(44)
	require.NoError(t, err)
	require.Equal(t, XactInProgress, got)
}

func TestCLOGLogTruncateThenReadMiss(t *testing.T) {
	c, err := NewCLOGLog(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, c.SetStatus(5, XactCommitted))
	require.NoError(t, c.Checkpoint())

	// Make page 40 resident and dirty. SetStatus goes through ReadPage,
	// which does not pin a latest page (only ZeroPage does), so the
	// wraparound check never refuses the truncate below page 32.
	require.NoError(t, c.SetStatus(c.xactsPerPage*40, XactCommitted))

	require.NoError(t, c.Truncate(32))

	got, err := c.GetStatus(5)
	require.NoError(t, err)
	require.Equal(t, XactInProgress, got, "truncated page re-reads as a fresh recovery page")
}

func TestSubtransLogRoundTrip(t *testing.T) {
	s, err := NewSubtransLog(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, s.SetParent(100, 99))
	parent, err := s.GetParent(100)
	require.NoError(t, err)
	require.Equal(t, uint32(99), parent)
}

func TestMultiXactRoundTrip(t *testing.T) {
	off, err := NewMultiXactOffsetLog(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, off.SetOffset(7, 1000))
	got, err := off.GetOffset(7)
	require.NoError(t, err)
	require.Equal(t, uint32(1000), got)

	mem, err := NewMultiXactMemberLog(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, mem.SetMember(1000, 55, MemberForUpdate))
	xid, status, err := mem.GetMember(1000)
	require.NoError(t, err)
	require.Equal(t, uint32(55), xid)
	require.Equal(t, MemberForUpdate, status)
}

func TestDistTransLogRoundTrip(t *testing.T) {
	d, err := NewDistTransLog(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, d.SetStatus(3, DistCommitted))
	got, err := d.GetStatus(3)
	require.NoError(t, err)
	require.Equal(t, DistCommitted, got)
}
