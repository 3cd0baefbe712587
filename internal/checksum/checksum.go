package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// FileHash fingerprints an uploaded workbook. The hex digest is stored with
// the upload record and checked before parsing, so re-submitting the same
// bytes is a no-op instead of a duplicate import.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matcher tracks hashes already accepted within one request batch. Not safe
// for concurrent use; each upload request builds its own.
type Matcher struct {
	seen map[string]struct{}
}

func NewMatcher() *Matcher {
	return &Matcher{seen: make(map[string]struct{})}
}

// Seen records the hash and reports whether it was already present.
func (m *Matcher) Seen(hash string) bool {
	if _, ok := m.seen[hash]; ok {
		return true
	}
	m.seen[hash] = struct{}{}
	return false
}
