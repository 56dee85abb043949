package bundle

import (
	"sort"
	"time"
)

// Verdict is the overall result of a verification run
type Verdict string

const (
	// VerdictPass indicates no missing-in-local files and no modified files
	VerdictPass Verdict = "pass"
	// VerdictFail indicates missing or content-modified files
	VerdictFail Verdict = "fail"
)

// ExitCode returns the process exit code for the verdict
func (v Verdict) ExitCode() int {
	if v == VerdictPass {
		return 0
	}
	return 1
}

// Report aggregates the outcome of diffing two bundle trees.
// It is built incrementally by the Differ and read-only once Diff
// returns. Paths are relative, slash-separated, and sorted.
type Report struct {
	RunID         string `json:"run_id"`
	LocalPath     string `json:"local_path"`
	ReferencePath string `json:"reference_path"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Matched            int      `json:"matched"`
	SignatureOnly      []string `json:"signature_only"`
	Modified           []string `json:"modified"`
	MissingInLocal     []string `json:"missing_in_local"`
	MissingInReference []string `json:"missing_in_reference"`

	// Reasons maps non-matching paths to the classifier's explanation
	Reasons map[string]string `json:"reasons,omitempty"`
}

// Verdict derives pass/fail from the final report. Extra local files
// and signature-only differences are expected artifacts of re-signing
// and never fail verification.
func (r *Report) Verdict() Verdict {
	if len(r.MissingInLocal) == 0 && len(r.Modified) == 0 {
		return VerdictPass
	}
	return VerdictFail
}

// finalize sorts the path buckets for deterministic output. Nil
// buckets become empty slices so JSON consumers always see arrays.
func (r *Report) finalize() {
	for _, bucket := range []*[]string{&r.SignatureOnly, &r.Modified, &r.MissingInLocal, &r.MissingInReference} {
		if *bucket == nil {
			*bucket = []string{}
		}
		sort.Strings(*bucket)
	}
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
