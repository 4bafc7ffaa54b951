package util

import (
	"github.com/OneOfOne/xxhash"
)

// HashCode digests a page's raw bytes to a 64-bit fingerprint, used by
// slrupoolctl dump to let an operator spot-check whether two pages are
// byte-identical without printing both in full.
func HashCode(page []byte) uint64 {
	h := xxhash.New64()
	h.Write(page)
	return h.Sum64()
}
