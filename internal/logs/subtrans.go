package logs

import (
	"encoding/binary"

	"github.com/zhukovaskychina/slrupool/internal/slru"
)

// SubtransLog records each subtransaction's parent transaction id, 4
// bytes per entry, so a status lookup on a subtransaction can walk up to
// its top-level parent's CLOG entry.
type SubtransLog struct {
	basePage
	entriesPerPage uint32
}

// NewSubtransLog wires a SubtransLog over a freshly-built slru.Pool.
func NewSubtransLog(cfg slru.Config) (*SubtransLog, error) {
	if cfg.Name == "" {
		cfg.Name = "pg_subtrans"
	}
	cfg.Precedes = precedes32
	pool, err := slru.New(cfg)
	if err != nil {
		return nil, err
	}
	return &SubtransLog{
		basePage:       basePage{pool: pool},
		entriesPerPage: pool.PageSize() / 4,
	}, nil
}

func (s *SubtransLog) pageAndOffset(xid uint32) (page, byteOff uint32) {
	page = xid / s.entriesPerPage
	byteOff = (xid % s.entriesPerPage) * 4
	return
}

// GetParent returns xid's recorded parent transaction id, or 0 if none.
func (s *SubtransLog) GetParent(xid uint32) (uint32, error) {
	page, byteOff := s.pageAndOffset(xid)
	var parent uint32
	err := withPageReadOnly(s.pool, page, func(buf []byte) {
		parent = binary.LittleEndian.Uint32(buf[byteOff : byteOff+4])
	})
	return parent, err
}

// SetParent records xid's parent transaction id.
func (s *SubtransLog) SetParent(xid, parent uint32) error {
	page, byteOff := s.pageAndOffset(xid)
	return withPageForWrite(s.pool, page, -1, 0, func(buf []byte) {
		binary.LittleEndian.PutUint32(buf[byteOff:byteOff+4], parent)
	})
}
