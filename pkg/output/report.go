package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bundlecheck/bundlecheck/pkg/bundle"
)

// WriteReport writes the comparison report to a file.
// Format can be "human" or "json".
func WriteReport(report *bundle.Report, path string, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		return WriteJSON(file, report)
	default: // "human"
		return WriteHuman(file, report)
	}
}

// WriteHuman writes the report in human-readable format
func WriteHuman(w io.Writer, report *bundle.Report) error {
	fmt.Fprintf(w, "Bundle Integrity Report\n")
	fmt.Fprintf(w, "=======================\n\n")
	fmt.Fprintf(w, "Run:       %s\n", report.RunID)
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Local:     %s\n", report.LocalPath)
	fmt.Fprintf(w, "Reference: %s\n", report.ReferencePath)
	fmt.Fprintf(w, "Duration:  %s\n\n", report.Duration.Round(time.Millisecond))

	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Matched:              %d\n", report.Matched)
	fmt.Fprintf(w, "  Signature-only:       %d\n", len(report.SignatureOnly))
	fmt.Fprintf(w, "  Modified:             %d\n", len(report.Modified))
	fmt.Fprintf(w, "  Missing in local:     %d\n", len(report.MissingInLocal))
	fmt.Fprintf(w, "  Missing in reference: %d\n\n", len(report.MissingInReference))

	// Failing buckets first
	writeBucket(w, "Modified Files", report.Modified, report.Reasons)
	writeBucket(w, "Missing in Local", report.MissingInLocal, nil)
	writeBucket(w, "Signature-Only Differences", report.SignatureOnly, report.Reasons)
	writeBucket(w, "Only in Local", report.MissingInReference, nil)

	fmt.Fprintf(w, "Verdict: %s\n", strings.ToUpper(string(report.Verdict())))
	return nil
}

// writeBucket writes one category of paths with an underlined label
func writeBucket(w io.Writer, label string, paths []string, reasons map[string]string) {
	if len(paths) == 0 {
		return
	}

	header := fmt.Sprintf("%s (%d files)", label, len(paths))
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(header)))

	for _, path := range paths {
		fmt.Fprintf(w, "  %s\n", path)
		if reason := reasons[path]; reason != "" {
			fmt.Fprintf(w, "    Reason: %s\n", reason)
		}
	}
	fmt.Fprintf(w, "\n")
}

// jsonReport wraps the report with its derived verdict for serialization
type jsonReport struct {
	*bundle.Report
	Verdict bundle.Verdict `json:"verdict"`
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report *bundle.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		Report:  report,
		Verdict: report.Verdict(),
	})
}
