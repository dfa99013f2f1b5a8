package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key derives the cache key for an (image, prompt) pair. The image bytes are
// hashed first so the prompt hash input stays small, then the two are combined
// into a single SHA-256 digest. The prompt is hashed exactly as given: two
// prompts differing only in whitespace are distinct keys.
func Key(imageBytes []byte, prompt string) string {
	imageSum := sha256.Sum256(imageBytes)

	h := sha256.New()
	h.Write(imageSum[:])
	h.Write([]byte{'\n'})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
