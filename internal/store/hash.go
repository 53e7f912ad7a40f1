package store

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the cache-invalidation hash of a file's content.
// xxhash is not cryptographic, which is fine here: the hash only decides
// whether a local file changed since the last scan.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
