package slru

import (
	"fmt"

	jujuerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/slrupool/logger"
)

// ErrCause classifies the syscall family that failed during physical I/O.
// The physical layer stashes one of these alongside the platform errno in
// an IOError and returns it to its caller; its only panic is the
// WALFlushFatal one raised when the WAL adapter fails.
type ErrCause uint8

const (
	CauseOpen ErrCause = iota
	CauseSeek
	CauseRead
	CauseWrite
	CauseFsync
	CauseClose
)

func (c ErrCause) String() string {
	switch c {
	case CauseOpen:
		return "OPEN_FAILED"
	case CauseSeek:
		return "SEEK_FAILED"
	case CauseRead:
		return "READ_FAILED"
	case CauseWrite:
		return "WRITE_FAILED"
	case CauseFsync:
		return "FSYNC_FAILED"
	case CauseClose:
		return "CLOSE_FAILED"
	default:
		return "UNKNOWN_FAILED"
	}
}

// IOError is the diagnostic the cache surfaces after restoring shared
// state and releasing the slot lock — never before. Err carries the
// original syscall/os error via juju/errors so a caller can still walk
// the cause chain with errors.Is/As.
type IOError struct {
	Cause  ErrCause
	Pageno uint32
	Path   string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: page %d, file %q, offset %d: %v",
		e.Cause, e.Pageno, e.Path, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func newIOError(cause ErrCause, pageno uint32, path string, offset int64, err error) *IOError {
	return &IOError{
		Cause:  cause,
		Pageno: pageno,
		Path:   path,
		Offset: offset,
		Err:    jujuerrors.Trace(err),
	}
}

// ErrWraparound is returned (never panicked) when a truncate request is
// refused because the cutoff page appears, under the pool's page-order
// predicate, to lie in the future relative to latestPageNumber. Safety
// wins over progress: the operator sees it in the log and decides.
type ErrWraparound struct {
	LatestPage uint32
	CutoffPage uint32
}

func (e *ErrWraparound) Error() string {
	return fmt.Sprintf("truncate refused: cutoff page %d does not precede latest page %d (wraparound?)",
		e.CutoffPage, e.LatestPage)
}

func newWraparoundError(latest, cutoff uint32) error {
	err := &ErrWraparound{LatestPage: latest, CutoffPage: cutoff}
	logger.Warnf("slru: %v", err)
	return err
}

// WALFlushFatal reports that the external WAL adapter could not durably
// flush up to a required LSN. The cache cannot safely continue writing
// past this point, so the constructor logs at fatal severity and panics;
// callers must not recover it on the I/O path.
type WALFlushFatal struct {
	LSN LSN
	Err error
}

func (e *WALFlushFatal) Error() string {
	return fmt.Sprintf("WAL flush up to LSN %d failed fatally: %v", e.LSN, e.Err)
}

func panicWALFlushFatal(lsn LSN, err error) {
	wf := &WALFlushFatal{LSN: lsn, Err: err}
	logger.Errorf("slru: %v (process cannot make further progress on this pool)", wf)
	panic(wf)
}
