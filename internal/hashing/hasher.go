// Package hashing computes content fingerprints for library files.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// Ensure Hasher implements the interface.
var _ driven.ContentHasher = (*Hasher)(nil)

const (
	// windowSize is the number of bytes hashed for identity. Files at or
	// under this size are hashed whole; larger files contribute a window
	// of this size centred at the midpoint, which keeps the fingerprint
	// stable against small edits near either end.
	windowSize = 4096

	// manifestChunkSize is the streaming chunk size for the export
	// manifest hash.
	manifestChunkSize = 64 * 1024
)

// Hasher fingerprints files on raw bytes, independent of format.
type Hasher struct{}

// New creates a new Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the identity fingerprint of the file as lowercase hex.
// Deterministic across calls and process restarts.
func (h *Hasher) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("statting file: %w", err)
	}

	size := info.Size()
	digest := sha256.New()

	if size <= windowSize {
		if _, err := io.Copy(digest, f); err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return hex.EncodeToString(digest.Sum(nil)), nil
	}

	offset := (size - windowSize) / 2
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seeking to window: %w", err)
	}
	if _, err := io.CopyN(digest, f, windowSize); err != nil {
		return "", fmt.Errorf("reading window: %w", err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// ManifestHash returns a content-addressable hash of the whole file: the
// hash of the sequence of per-chunk hashes. Suitable for export manifests
// aimed at chunked distributed storage; never used for identity.
func (h *Hasher) ManifestHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	outer := sha256.New()
	buf := make([]byte, manifestChunkSize)
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			chunkSum := sha256.Sum256(buf[:n])
			outer.Write(chunkSum[:])
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading chunk: %w", err)
		}
	}

	return hex.EncodeToString(outer.Sum(nil)), nil
}
