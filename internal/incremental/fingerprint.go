package incremental

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes a fast 64-bit content hash used purely for change
// detection. It is not cryptographic; collisions are an accepted
// correctness risk traded for speed.
func Fingerprint(content string) string {
	return strconv.FormatUint(xxhash.Sum64String(content), 16)
}
