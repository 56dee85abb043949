package compare

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bundlecheck/bundlecheck/pkg/macho"
	"github.com/bundlecheck/bundlecheck/pkg/storage"
)

// Classification is the outcome of comparing one matched file pair
type Classification string

const (
	// Match indicates byte-identical files
	Match Classification = "match"
	// SignatureOnly indicates an executable whose differences are
	// confined to signature-carrying regions
	SignatureOnly Classification = "signature_only"
	// Modified indicates content differences, or a pair whose
	// equivalence could not be proven
	Modified Classification = "modified"
)

// Comparison holds the result of classifying one file pair
type Comparison struct {
	RelativePath string
	Result       Classification
	Reason       string
}

// Classifier decides whether a matched file pair is identical,
// signature-only-different, or modified
type Classifier struct {
	sniffer    *macho.Sniffer
	extractor  *macho.Extractor
	bufferSize int
	bufferPool *sync.Pool
}

// NewClassifier creates a classifier using the given sniffer and extractor
func NewClassifier(sniffer *macho.Sniffer, extractor *macho.Extractor, bufferSize int) *Classifier {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Classifier{
		sniffer:    sniffer,
		extractor:  extractor,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Classify compares the file at relPath in both trees.
// Per-file read and parse failures are downgraded to Modified with the
// reason recorded, so one unreadable or malformed file never aborts the
// whole run. Only context cancellation is returned as an error.
func (c *Classifier) Classify(ctx context.Context, local, reference storage.Backend, relPath string) (*Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	localInfo, err := local.Stat(ctx, relPath)
	if err != nil {
		return c.modified(relPath, fmt.Sprintf("cannot stat local file: %v", err)), nil
	}
	refInfo, err := reference.Stat(ctx, relPath)
	if err != nil {
		return c.modified(relPath, fmt.Sprintf("cannot stat reference file: %v", err)), nil
	}

	// Fast path: equal sizes, compare whole-file digests. Differing
	// sizes cannot be byte-identical, so skip straight to the
	// executable pipeline in that case.
	if localInfo.Size == refInfo.Size {
		var localDigest, refDigest Digest
		var localErr, refErr error
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			localDigest, localErr = c.FileDigest(ctx, local, relPath)
		}()
		go func() {
			defer wg.Done()
			refDigest, refErr = c.FileDigest(ctx, reference, relPath)
		}()
		wg.Wait()

		if err := ctxError(localErr, refErr); err != nil {
			return nil, err
		}
		if localErr != nil {
			return c.modified(relPath, fmt.Sprintf("cannot hash local file: %v", localErr)), nil
		}
		if refErr != nil {
			return c.modified(relPath, fmt.Sprintf("cannot hash reference file: %v", refErr)), nil
		}

		if localDigest == refDigest {
			return &Comparison{
				RelativePath: relPath,
				Result:       Match,
				Reason:       "file digests match",
			}, nil
		}
	}

	// Bytes differ. A non-executable file has no legitimate reason to
	// change under re-signing.
	if c.sniff(ctx, local, relPath) == macho.NotExecutable {
		return c.modified(relPath, "content differs"), nil
	}

	// Executable image: compare signature-invariant section digests.
	// Extraction failure on either side means equivalence cannot be
	// proven, which is conservatively Modified.
	localDigest, localErr := c.SectionDigest(ctx, local, relPath)
	refDigest, refErr := c.SectionDigest(ctx, reference, relPath)

	if err := ctxError(localErr, refErr); err != nil {
		return nil, err
	}
	if localErr != nil {
		return c.modified(relPath, fmt.Sprintf("cannot fingerprint local image: %v", localErr)), nil
	}
	if refErr != nil {
		return c.modified(relPath, fmt.Sprintf("cannot fingerprint reference image: %v", refErr)), nil
	}

	if localDigest == refDigest {
		return &Comparison{
			RelativePath: relPath,
			Result:       SignatureOnly,
			Reason:       "differences confined to signature regions",
		}, nil
	}

	return c.modified(relPath, "comparable section content differs"), nil
}

func (c *Classifier) modified(relPath, reason string) *Comparison {
	return &Comparison{
		RelativePath: relPath,
		Result:       Modified,
		Reason:       reason,
	}
}

// ctxError surfaces context cancellation out of per-file errors so it is
// not downgraded to a Modified classification
func ctxError(errs ...error) error {
	for _, err := range errs {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return nil
}
