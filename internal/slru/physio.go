package slru

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// segmentName formats a segment number as a four-uppercase-hex-digit
// file name.
func segmentName(segment uint32) string {
	return fmt.Sprintf("%0*X", SegmentNameLen, segment)
}

func (p *Pool) segmentAndOffset(pageno uint32) (segment uint32, offset int64) {
	pps := p.cfg.PagesPerSegment
	segment = pageno / pps
	offset = int64(pageno%pps) * int64(p.cfg.PageSize)
	return
}

func (p *Pool) segmentPath(segment uint32) string {
	return filepath.Join(p.cfg.Directory, segmentName(segment))
}

// physicalRead reads one page from its segment file into buf, which must
// be exactly PageSize bytes. It never panics; failures come back as
// *IOError. recovered is true when the segment file did not exist and
// Config.Recovery supplied a zero-filled page in its place rather than a
// genuine on-disk read.
func (p *Pool) physicalRead(pageno uint32, buf []byte) (recovered bool, err error) {
	segment, offset := p.segmentAndOffset(pageno)
	path := p.segmentPath(segment)

	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		if os.IsNotExist(err) && p.cfg.Recovery {
			for i := range buf {
				buf[i] = 0
			}
			return true, nil
		}
		return false, newIOError(CauseOpen, pageno, path, offset, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return false, newIOError(CauseSeek, pageno, path, offset, err)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return false, newIOError(CauseRead, pageno, path, offset, err)
	}
	return false, nil
}

// physicalWrite flushes the WAL up to maxLSN (if nonzero) before writing
// the page, opens its segment file without truncating or requiring
// exclusive creation (concurrent writers of other pages in the same
// segment are expected), writes PageSize bytes, and fsyncs when fsyncNow
// and Config.FsyncEnabled are both set.
func (p *Pool) physicalWrite(pageno uint32, buf []byte, maxLSN uint64, fsyncNow bool) error {
	if maxLSN != 0 {
		if err := p.cfg.WAL.FlushUpTo(LSN(maxLSN)); err != nil {
			panicWALFlushFatal(LSN(maxLSN), err)
		}
	}

	segment, offset := p.segmentAndOffset(pageno)
	path := p.segmentPath(segment)

	mf := p.cfg.NewMirroredFile()
	if err := mf.Open(p.cfg.Directory, segmentName(segment)); err != nil {
		return newIOError(CauseOpen, pageno, path, offset, err)
	}
	defer mf.Close()

	if err := mf.SeekSet(offset); err != nil {
		return newIOError(CauseSeek, pageno, path, offset, err)
	}
	if _, err := mf.WriteAt(offset, buf); err != nil {
		return newIOError(CauseWrite, pageno, path, offset, err)
	}
	if fsyncNow && p.cfg.FsyncEnabled {
		if err := mf.Flush(); err != nil {
			return newIOError(CauseFsync, pageno, path, offset, err)
		}
	}
	p.stats.recordWrite()
	return nil
}
