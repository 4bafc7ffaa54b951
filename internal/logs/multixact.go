package logs

import (
	"encoding/binary"

	"github.com/zhukovaskychina/slrupool/internal/slru"
)

// MultiXactOffsetLog maps a multixact id to the starting offset of its
// member list in MultiXactMemberLog, 4 bytes per entry.
type MultiXactOffsetLog struct {
	basePage
	entriesPerPage uint32
}

// NewMultiXactOffsetLog wires a MultiXactOffsetLog over a freshly-built
// slru.Pool.
func NewMultiXactOffsetLog(cfg slru.Config) (*MultiXactOffsetLog, error) {
	if cfg.Name == "" {
		cfg.Name = "pg_multixact_offset"
	}
	cfg.Precedes = precedes32
	pool, err := slru.New(cfg)
	if err != nil {
		return nil, err
	}
	return &MultiXactOffsetLog{
		basePage:       basePage{pool: pool},
		entriesPerPage: pool.PageSize() / 4,
	}, nil
}

func (m *MultiXactOffsetLog) pageAndOffset(mxid uint32) (page, byteOff uint32) {
	page = mxid / m.entriesPerPage
	byteOff = (mxid % m.entriesPerPage) * 4
	return
}

// GetOffset returns mxid's recorded member-list offset.
func (m *MultiXactOffsetLog) GetOffset(mxid uint32) (uint32, error) {
	page, byteOff := m.pageAndOffset(mxid)
	var offset uint32
	err := withPageReadOnly(m.pool, page, func(buf []byte) {
		offset = binary.LittleEndian.Uint32(buf[byteOff : byteOff+4])
	})
	return offset, err
}

// SetOffset records mxid's member-list offset.
func (m *MultiXactOffsetLog) SetOffset(mxid, offset uint32) error {
	page, byteOff := m.pageAndOffset(mxid)
	return withPageForWrite(m.pool, page, -1, 0, func(buf []byte) {
		binary.LittleEndian.PutUint32(buf[byteOff:byteOff+4], offset)
	})
}

// MultiXactMemberStatus is one member transaction's lock mode within a
// multixact, packed alongside its xid.
type MultiXactMemberStatus uint8

const (
	MemberForKeyShare MultiXactMemberStatus = iota
	MemberShare
	MemberForNoKeyUpdate
	MemberForUpdate
)

const multixactMemberSize = 5 // 4-byte xid + 1-byte status

// MultiXactMemberLog stores each multixact's flat member list: one
// (transaction id, lock mode) pair per entry, addressed by a linear
// member offset rather than by multixact id.
type MultiXactMemberLog struct {
	basePage
	entriesPerPage uint32
}

// NewMultiXactMemberLog wires a MultiXactMemberLog over a freshly-built
// slru.Pool.
func NewMultiXactMemberLog(cfg slru.Config) (*MultiXactMemberLog, error) {
	if cfg.Name == "" {
		cfg.Name = "pg_multixact_members"
	}
	cfg.Precedes = precedes32
	pool, err := slru.New(cfg)
	if err != nil {
		return nil, err
	}
	return &MultiXactMemberLog{
		basePage:       basePage{pool: pool},
		entriesPerPage: pool.PageSize() / multixactMemberSize,
	}, nil
}

func (m *MultiXactMemberLog) pageAndOffset(memberOffset uint32) (page, byteOff uint32) {
	page = memberOffset / m.entriesPerPage
	byteOff = (memberOffset % m.entriesPerPage) * multixactMemberSize
	return
}

// GetMember reads the (xid, status) pair at memberOffset.
func (m *MultiXactMemberLog) GetMember(memberOffset uint32) (xid uint32, status MultiXactMemberStatus, err error) {
	page, byteOff := m.pageAndOffset(memberOffset)
	err = withPageReadOnly(m.pool, page, func(buf []byte) {
		xid = binary.LittleEndian.Uint32(buf[byteOff : byteOff+4])
		status = MultiXactMemberStatus(buf[byteOff+4])
	})
	return
}

// SetMember records the (xid, status) pair at memberOffset.
func (m *MultiXactMemberLog) SetMember(memberOffset, xid uint32, status MultiXactMemberStatus) error {
	page, byteOff := m.pageAndOffset(memberOffset)
	return withPageForWrite(m.pool, page, -1, 0, func(buf []byte) {
		binary.LittleEndian.PutUint32(buf[byteOff:byteOff+4], xid)
		buf[byteOff+4] = byte(status)
	})
}
