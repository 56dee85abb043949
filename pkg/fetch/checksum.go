package fetch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumError is returned when a downloaded archive fails its
// checksum check. It is fatal to the run: the archive must not be
// extracted if unverified.
type ChecksumError struct {
	Path     string
	Expected string
	Computed string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, computed %s", e.Path, e.Expected, e.Computed)
}

// VerifySHA1 computes the SHA-1 of the file at path and compares it to
// the expected hex digest from the build descriptor
func VerifySHA1(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to compute checksum: %w", err)
	}

	computed := hex.EncodeToString(h.Sum(nil))
	expected = strings.ToLower(strings.TrimSpace(expected))

	if computed != expected {
		return &ChecksumError{
			Path:     path,
			Expected: expected,
			Computed: computed,
		}
	}

	return nil
}
