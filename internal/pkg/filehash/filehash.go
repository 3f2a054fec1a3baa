// Package filehash computes content digests for uploaded files.
package filehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// chunkSize keeps memory use independent of file size
const chunkSize = 32 * 1024

// SumReader computes the hex-encoded SHA-256 digest of r by streaming it
// in fixed-size chunks, then restores the reader to its start so the
// content can be consumed again downstream.
func SumReader(r io.ReadSeeker) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read content for hashing: %w", err)
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind content after hashing: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
