package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// integritySHA256 is the content-addressable token consumers use to verify
// an artifact was not corrupted in transit.
func integritySHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Slugify reduces an untrusted module name to a filesystem and URL safe
// key: lowercase, ascii letters, digits and hyphens, runs collapsed.
// Untrusted names are never used verbatim in a storage path.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
