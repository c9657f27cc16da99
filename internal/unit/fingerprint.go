package unit

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a deterministic hex digest of text. Equal text yields
// equal fingerprints; it is used for equality only.
func Fingerprint(text string) string {
	h := xxh3.New()
	_, _ = h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
