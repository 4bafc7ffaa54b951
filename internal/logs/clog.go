package logs

import "github.com/zhukovaskychina/slrupool/internal/slru"

// XactStatus is one transaction's commit status, packed 2 bits per
// transaction in CLOGLog's pages.
type XactStatus uint8

const (
	XactInProgress XactStatus = iota
	XactCommitted
	XactAborted
	XactSubCommitted
)

const (
	clogBitsPerXact  = 2
	clogXactsPerByte = 8 / clogBitsPerXact
)

// CLOGLog is the commit-status log: two bits per transaction id,
// recording whether it is in progress, committed, aborted, or
// sub-committed (awaiting its top-level parent's outcome).
type CLOGLog struct {
	basePage
	xactsPerPage uint32
}

// NewCLOGLog wires a CLOGLog over a freshly-built slru.Pool sized for
// clogBitsPerXact-bit entries.
func NewCLOGLog(cfg slru.Config) (*CLOGLog, error) {
	if cfg.Name == "" {
		cfg.Name = "pg_clog"
	}
	cfg.Precedes = precedes32
	pool, err := slru.New(cfg)
	if err != nil {
		return nil, err
	}
	return &CLOGLog{
		basePage:     basePage{pool: pool},
		xactsPerPage: pool.PageSize() * uint32(clogXactsPerByte),
	}, nil
}

func (c *CLOGLog) pageAndOffset(xid uint32) (page uint32, byteOff uint32, shift uint) {
	page = xid / c.xactsPerPage
	idxInPage := xid % c.xactsPerPage
	byteOff = idxInPage / uint32(clogXactsPerByte)
	shift = uint(idxInPage%uint32(clogXactsPerByte)) * clogBitsPerXact
	return
}

// GetStatus reads xid's commit status.
func (c *CLOGLog) GetStatus(xid uint32) (XactStatus, error) {
	page, byteOff, shift := c.pageAndOffset(xid)
	var status XactStatus
	err := withPageReadOnly(c.pool, page, func(buf []byte) {
		status = XactStatus((buf[byteOff] >> shift) & 0x3)
	})
	return status, err
}

// SetStatus records xid's commit status. If the page has never been
// written, it reads as zero-filled when the underlying pool has
// Config.Recovery set.
func (c *CLOGLog) SetStatus(xid uint32, status XactStatus) error {
	page, byteOff, shift := c.pageAndOffset(xid)
	return withPageForWrite(c.pool, page, -1, 0, func(buf []byte) {
		buf[byteOff] &^= 0x3 << shift
		buf[byteOff] |= byte(status&0x3) << shift
	})
}
