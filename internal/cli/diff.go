package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlecheck/bundlecheck/internal/platform"
	"github.com/bundlecheck/bundlecheck/pkg/storage"
)

// diffFlags holds flag values for the diff command
type diffFlags struct {
	Local        string
	Reference    string
	Workers      int
	Exclude      []string
	ReportFile   string
	ReportFormat string
}

var diffOpts diffFlags

// NewDiffCommand creates the diff command
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two extracted bundle trees",
		Long: `Compare a locally re-signed bundle tree against an already-extracted
reference tree and report matched, signature-only, modified, and missing
files. Exits 0 if the trees are semantically identical, 1 otherwise.`,
		RunE: runDiff,
	}

	cmd.Flags().StringVarP(&diffOpts.Local, "local", "l", "", "re-signed bundle root (required)")
	cmd.Flags().StringVarP(&diffOpts.Reference, "reference", "r", "", "unsigned reference bundle root (required)")
	cmd.MarkFlagRequired("local")
	cmd.MarkFlagRequired("reference")

	cmd.Flags().IntVar(&diffOpts.Workers, "workers", 0, "parallel classifications (0 = config value)")
	cmd.Flags().StringSliceVar(&diffOpts.Exclude, "exclude", nil, "additional signature-artifact path markers")
	cmd.Flags().StringVar(&diffOpts.ReportFile, "report", "", "write report to file")
	cmd.Flags().StringVar(&diffOpts.ReportFormat, "report-format", "human", "report file format: human, json")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if diffOpts.Workers > 0 {
		cfg.Performance.MaxWorkers = diffOpts.Workers
	}
	cfg.Verify.ExcludeMarkers = append(cfg.Verify.ExcludeMarkers, diffOpts.Exclude...)

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	local, err := storage.NewLocal(platform.NormalizePath(diffOpts.Local))
	if err != nil {
		return fmt.Errorf("failed to open local tree: %w", err)
	}
	defer local.Close()

	reference, err := storage.NewLocal(platform.NormalizePath(diffOpts.Reference))
	if err != nil {
		return fmt.Errorf("failed to open reference tree: %w", err)
	}
	defer reference.Close()

	differ := buildDiffer(cfg, logger)
	report, err := differ.Diff(ctx, local, reference)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if err := renderReport(report, cfg, diffOpts.ReportFile, diffOpts.ReportFormat); err != nil {
		return err
	}

	os.Exit(report.Verdict().ExitCode())
	return nil
}
