package slru

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	atomicfile "github.com/natefinch/atomic"
)

// MirroredFile writes through on the primary and durably enqueues the
// same write for a standby host. The cache's only contract with it is
// open/seek/write/flush/close/drop; it never reads through the adapter
// (reads come from physicalRead, local to the primary).
type MirroredFile interface {
	Open(dir, name string) error
	SeekSet(offset int64) error
	WriteAt(offset int64, buf []byte) (int, error)
	Flush() error
	Close() error
	Drop(dir, name string) error
}

// LocalMirroredFile is the default MirroredFile: it writes straight
// through to the local segment file (a page-sized pwrite into a
// potentially larger, concurrently-written segment, so it cannot use
// whole-file atomic replace), and separately records a small
// "pending mirror sync" marker for the segment using an atomic whole-file
// rename so a crash mid-enqueue can never leave a torn marker behind —
// the one part of this adapter where atomic.WriteFile's all-or-nothing
// replace is actually the right shape.
type LocalMirroredFile struct {
	dir, name string
	f         *os.File
	offset    int64
}

// NewLocalMirroredFile returns the default, single-process MirroredFile.
func NewLocalMirroredFile() *LocalMirroredFile { return &LocalMirroredFile{} }

func (m *LocalMirroredFile) Open(dir, name string) error {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	m.dir, m.name, m.f = dir, name, f
	return nil
}

func (m *LocalMirroredFile) SeekSet(offset int64) error {
	m.offset = offset
	_, err := m.f.Seek(offset, 0)
	return err
}

func (m *LocalMirroredFile) WriteAt(offset int64, buf []byte) (int, error) {
	n, err := m.f.WriteAt(buf, offset)
	if err != nil {
		return n, err
	}
	if err := m.enqueueMirrorMarker(offset, len(buf)); err != nil {
		return n, err
	}
	return n, nil
}

func (m *LocalMirroredFile) Flush() error { return m.f.Sync() }

func (m *LocalMirroredFile) Close() error {
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return err
}

// Drop removes the segment and its pending-mirror marker.
func (m *LocalMirroredFile) Drop(dir, name string) error {
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	markerPath := filepath.Join(dir, "."+name+".mirror")
	if err := os.Remove(markerPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// enqueueMirrorMarker durably records the last (offset, length) written
// to this segment so a replication sidecar process can pick it up and
// ship the delta to the standby. The marker file is replaced atomically
// so a reader never observes a half-written record.
func (m *LocalMirroredFile) enqueueMirrorMarker(offset int64, length int) error {
	markerPath := filepath.Join(m.dir, "."+m.name+".mirror")
	content := fmt.Sprintf("%s %d %d\n", m.name, offset, length)
	return atomicfile.WriteFile(markerPath, bytes.NewReader([]byte(content)))
}
