package compare

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/bundlecheck/bundlecheck/pkg/macho"
	"github.com/bundlecheck/bundlecheck/pkg/storage"
)

// Digest is a 256-bit content fingerprint
type Digest [sha256.Size]byte

// String returns the hex form of the digest
func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

// FileDigest computes the SHA-256 of a file's full byte content using
// streaming reads
func (c *Classifier) FileDigest(ctx context.Context, backend storage.Backend, path string) (Digest, error) {
	var digest Digest

	reader, err := backend.Read(ctx, path)
	if err != nil {
		return digest, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	hasher := sha256.New()

	// Get buffer from pool
	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return digest, ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return digest, fmt.Errorf("failed to read file: %w", err)
		}
	}

	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// SectionDigest computes the signature-invariant fingerprint of an
// executable image: the SHA-256 of the concatenated byte content of all
// comparable sections, in table order. The stable ordering from the
// extractor makes the digest deterministic across runs.
func (c *Classifier) SectionDigest(ctx context.Context, backend storage.Backend, path string) (Digest, error) {
	var digest Digest

	ra, err := backend.Open(ctx, path)
	if err != nil {
		return digest, fmt.Errorf("failed to open file: %w", err)
	}
	defer ra.Close()

	sections, err := c.extractor.Extract(ra)
	if err != nil {
		return digest, err
	}

	hasher := sha256.New()

	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	for _, sect := range sections {
		select {
		case <-ctx.Done():
			return digest, ctx.Err()
		default:
		}

		sr := io.NewSectionReader(ra, int64(sect.Offset), int64(sect.Size))
		written, err := io.CopyBuffer(hasher, sr, buffer)
		if err != nil {
			return digest, fmt.Errorf("failed to read section %s,%s: %w", sect.Segment, sect.Name, err)
		}
		if uint64(written) != sect.Size {
			// The declared range extends past end-of-file: a
			// malformed or truncated artifact
			return digest, fmt.Errorf("section %s,%s: read %d of %d declared bytes",
				sect.Segment, sect.Name, written, sect.Size)
		}
	}

	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// sniff classifies the leading bytes of a file through the backend
func (c *Classifier) sniff(ctx context.Context, backend storage.Backend, path string) macho.Format {
	ra, err := backend.Open(ctx, path)
	if err != nil {
		return macho.NotExecutable
	}
	defer ra.Close()

	return c.sniffer.Classify(ra)
}
