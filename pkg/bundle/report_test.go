package bundle

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVerdict(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   Verdict
	}{
		{
			name:   "AllMatched",
			report: Report{Matched: 10},
			want:   VerdictPass,
		},
		{
			name:   "SignatureOnlyPasses",
			report: Report{Matched: 9, SignatureOnly: []string{"Contents/MacOS/app"}},
			want:   VerdictPass,
		},
		{
			name:   "ExtraLocalFilesPass",
			report: Report{Matched: 5, MissingInReference: []string{"entitlements.plist"}},
			want:   VerdictPass,
		},
		{
			name:   "MissingInLocalFails",
			report: Report{Matched: 5, MissingInLocal: []string{"c.txt"}},
			want:   VerdictFail,
		},
		{
			name:   "ModifiedFails",
			report: Report{Matched: 5, Modified: []string{"b.bin"}},
			want:   VerdictFail,
		},
		{
			name: "ModifiedFailsRegardlessOfMissing",
			report: Report{
				Matched:            5,
				Modified:           []string{"b.bin"},
				MissingInReference: []string{"extra.txt"},
			},
			want: VerdictFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Verdict(); got != tt.want {
				t.Errorf("Verdict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalizeInitializesBuckets(t *testing.T) {
	report := &Report{Matched: 3, Modified: []string{"b.bin", "a.bin"}}
	report.finalize()

	if report.SignatureOnly == nil || report.MissingInLocal == nil || report.MissingInReference == nil {
		t.Error("finalize() left nil buckets")
	}
	if report.Modified[0] != "a.bin" || report.Modified[1] != "b.bin" {
		t.Errorf("Modified = %v, want sorted", report.Modified)
	}

	// Empty buckets must marshal as arrays, not null
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("report JSON contains null buckets: %s", data)
	}
}

func TestVerdictExitCode(t *testing.T) {
	if code := VerdictPass.ExitCode(); code != 0 {
		t.Errorf("VerdictPass.ExitCode() = %d, want 0", code)
	}
	if code := VerdictFail.ExitCode(); code != 1 {
		t.Errorf("VerdictFail.ExitCode() = %d, want 1", code)
	}
}
