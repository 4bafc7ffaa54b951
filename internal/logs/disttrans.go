package logs

import "github.com/zhukovaskychina/slrupool/internal/slru"

// DistStatus is one distributed (two-phase) transaction's outcome.
type DistStatus uint8

const (
	DistPrepared DistStatus = iota
	DistCommitted
	DistAborted
)

// DistTransLog records the outcome of prepared distributed transactions,
// one byte per global transaction id. Unlike CLOGLog it has no bit
// packing to do — a byte per entry leaves room for the handful of extra
// states a two-phase coordinator needs without changing the page layout.
type DistTransLog struct {
	basePage
	entriesPerPage uint32
}

// NewDistTransLog wires a DistTransLog over a freshly-built slru.Pool.
func NewDistTransLog(cfg slru.Config) (*DistTransLog, error) {
	if cfg.Name == "" {
		cfg.Name = "pg_twophase"
	}
	cfg.Precedes = precedes32
	pool, err := slru.New(cfg)
	if err != nil {
		return nil, err
	}
	return &DistTransLog{
		basePage:       basePage{pool: pool},
		entriesPerPage: pool.PageSize(),
	}, nil
}

func (d *DistTransLog) pageAndOffset(gxid uint32) (page, byteOff uint32) {
	page = gxid / d.entriesPerPage
	byteOff = gxid % d.entriesPerPage
	return
}

// GetStatus reads gxid's recorded outcome.
func (d *DistTransLog) GetStatus(gxid uint32) (DistStatus, error) {
	page, byteOff := d.pageAndOffset(gxid)
	var status DistStatus
	err := withPageReadOnly(d.pool, page, func(buf []byte) {
		status = DistStatus(buf[byteOff])
	})
	return status, err
}

// SetStatus records gxid's outcome.
func (d *DistTransLog) SetStatus(gxid uint32, status DistStatus) error {
	page, byteOff := d.pageAndOffset(gxid)
	return withPageForWrite(d.pool, page, -1, 0, func(buf []byte) {
		buf[byteOff] = byte(status)
	})
}
