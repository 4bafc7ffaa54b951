package slru

import (
	"os"
	"strconv"

	jujuerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/slrupool/logger"
)

// isSegmentName reports whether name is exactly SegmentNameLen uppercase
// hex digits, the segment file naming convention.
func isSegmentName(name string) bool {
	if len(name) != SegmentNameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func parseSegmentName(name string) (uint32, bool) {
	if !isSegmentName(name) {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// ScanDirectory walks the pool's directory for well-formed segment files
// and, for each whose first page (segment × PagesPerSegment) precedes
// cutoffPage, either reports it
// (removeMatching == false) or unlinks it (removeMatching == true). It
// returns whether any qualifying segment was found. The control lock is
// not touched; callers already hold it exclusively when this runs as part
// of Truncate.
func (p *Pool) ScanDirectory(cutoffPage uint32, removeMatching bool) (bool, error) {
	entries, err := os.ReadDir(p.cfg.Directory)
	if err != nil {
		return false, jujuerrors.Trace(err)
	}

	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		segment, ok := parseSegmentName(e.Name())
		if !ok {
			continue
		}
		if !p.cfg.Precedes(segment*p.cfg.PagesPerSegment, cutoffPage) {
			continue
		}
		found = true
		if !removeMatching {
			continue
		}
		path := p.segmentPath(segment)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return found, jujuerrors.Trace(err)
		}
		mf := p.cfg.NewMirroredFile()
		if err := mf.Drop(p.cfg.Directory, segmentName(segment)); err != nil {
			logger.Warnf("slru: %s: mirror drop for segment %s failed: %v", p.cfg.Name, segmentName(segment), err)
		}
	}
	return found, nil
}
