// Package cas computes the content fingerprints the song library relies on: song revisions,
// which are BLAKE3 digests of the stored lyrics, and the SHA-256 plus BLAKE3 checksums
// recorded for every file in a library bundle.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// ErrChecksumMismatch is returned when data does not match its recorded checksums.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// revisionLength is the number of hex characters kept from a revision digest.
const revisionLength = 16

// HashResult contains both SHA-256 and BLAKE3 hashes of a blob.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum hashes data with both algorithms.
func Sum(data []byte) HashResult {
	return HashResult{SHA256: Hash(data), BLAKE3: Blake3Hash(data)}
}

// Verify checks data against recorded checksums.
func Verify(data []byte, want HashResult) error {
	got := Sum(data)
	if want.SHA256 != "" && got.SHA256 != want.SHA256 {
		return fmt.Errorf("%w: sha256 %s, expected %s", ErrChecksumMismatch, got.SHA256, want.SHA256)
	}
	if want.BLAKE3 != "" && got.BLAKE3 != want.BLAKE3 {
		return fmt.Errorf("%w: blake3 %s, expected %s", ErrChecksumMismatch, got.BLAKE3, want.BLAKE3)
	}
	return nil
}

// Hash computes the SHA-256 hash of the given data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 hash of the given data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Revision fingerprints the stored form of a song. Each part is length-prefixed so moving
// text between parts changes the result.
func Revision(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(strconv.Itoa(len(p)) + ":" + p))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:revisionLength]
}
