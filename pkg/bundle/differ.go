package bundle

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bundlecheck/bundlecheck/pkg/compare"
	"github.com/bundlecheck/bundlecheck/pkg/logging"
	"github.com/bundlecheck/bundlecheck/pkg/storage"
)

// rooted is satisfied by backends that expose their filesystem root
type rooted interface {
	Root() string
}

// Differ walks two bundle trees, matches files by relative path, and
// aggregates per-file classifications into a Report
type Differ struct {
	classifier *compare.Classifier
	filter     *Filter
	logger     logging.Logger
	maxWorkers int
}

// NewDiffer creates a differ. maxWorkers controls parallel
// classification; 1 means fully sequential.
func NewDiffer(classifier *compare.Classifier, filter *Filter, logger logging.Logger, maxWorkers int) *Differ {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Differ{
		classifier: classifier,
		filter:     filter,
		logger:     logger,
		maxWorkers: maxWorkers,
	}
}

// Diff enumerates both trees, computes existence asymmetries filtered
// through the signature-artifact filter, and classifies every path
// present on both sides. Excluded paths are never classified and appear
// in no bucket.
func (d *Differ) Diff(ctx context.Context, local, reference storage.Backend) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		Reasons:   make(map[string]string),
	}
	if r, ok := local.(rooted); ok {
		report.LocalPath = r.Root()
	}
	if r, ok := reference.(rooted); ok {
		report.ReferencePath = r.Root()
	}

	localSet, err := d.enumerate(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate local tree: %w", err)
	}
	refSet, err := d.enumerate(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate reference tree: %w", err)
	}

	// Existence asymmetries, minus signature artifacts
	var common []string
	for rel := range refSet {
		if d.filter.IsSignatureArtifact(rel) {
			continue
		}
		if _, ok := localSet[rel]; !ok {
			report.MissingInLocal = append(report.MissingInLocal, rel)
		}
	}
	for rel := range localSet {
		if d.filter.IsSignatureArtifact(rel) {
			continue
		}
		if _, ok := refSet[rel]; ok {
			common = append(common, rel)
		} else {
			report.MissingInReference = append(report.MissingInReference, rel)
		}
	}
	sort.Strings(common)

	d.logger.Info(ctx, "tree enumeration complete", logging.Fields{
		"run_id":           report.RunID,
		"local_files":      len(localSet),
		"reference_files":  len(refSet),
		"common_files":     len(common),
		"missing_in_local": len(report.MissingInLocal),
	})

	if err := d.classifyAll(ctx, local, reference, common, report); err != nil {
		return nil, err
	}

	report.finalize()
	return report, nil
}

// enumerate returns the set of slash-separated relative paths of
// regular files under the backend's root. Directories are traversed but
// not recorded.
func (d *Differ) enumerate(ctx context.Context, backend storage.Backend) (map[string]struct{}, error) {
	files, err := backend.List(ctx, "")
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		if f.IsDir {
			continue
		}
		set[filepath.ToSlash(f.RelativePath)] = struct{}{}
	}
	return set, nil
}

// classifyAll classifies every common path, tallying into the report.
// Classification of one path only reads its own two files, so paths are
// safe to process in parallel; the tally is merged under a lock.
func (d *Differ) classifyAll(ctx context.Context, local, reference storage.Backend, paths []string, report *Report) error {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		semaphore = make(chan struct{}, d.maxWorkers)
	)

	for _, relPath := range paths {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(relPath string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			cmp, err := d.classifier.Classify(ctx, local, reference, relPath)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}

			switch cmp.Result {
			case compare.Match:
				report.Matched++
			case compare.SignatureOnly:
				report.SignatureOnly = append(report.SignatureOnly, relPath)
				report.Reasons[relPath] = cmp.Reason
			case compare.Modified:
				report.Modified = append(report.Modified, relPath)
				report.Reasons[relPath] = cmp.Reason
			}

			d.logger.Debug(ctx, "classified file pair", logging.Fields{
				"path":   relPath,
				"result": string(cmp.Result),
				"reason": cmp.Reason,
			})
		}(relPath)
	}

	wg.Wait()
	return firstErr
}
