package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlecheck/bundlecheck/internal/platform"
	"github.com/bundlecheck/bundlecheck/pkg/buildindex"
	"github.com/bundlecheck/bundlecheck/pkg/fetch"
	"github.com/bundlecheck/bundlecheck/pkg/logging"
	"github.com/bundlecheck/bundlecheck/pkg/ratelimit"
	"github.com/bundlecheck/bundlecheck/pkg/storage"
)

// verifyFlags holds flag values for the verify command
type verifyFlags struct {
	Local        string
	Version      string
	Platform     string
	IndexURL     string
	KeepTemp     bool
	ReportFile   string
	ReportFormat string
}

var verifyOpts verifyFlags

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a re-signed bundle against the vendor reference build",
		Long: `Resolve the requested version in the remote build index, download the
reference archive, verify its checksum, extract it, and compare the
local re-signed bundle against it. The local bundle may be an extracted
directory or a zip archive.

Archive-level failures (index lookup, download, checksum, extraction)
abort the run. Per-file problems never do; they surface as modified
files in the report.`,
		RunE: runVerify,
	}

	cmd.Flags().StringVarP(&verifyOpts.Local, "local", "l", "", "re-signed bundle directory or zip archive (required)")
	cmd.Flags().StringVar(&verifyOpts.Version, "version", "", "version to verify against, e.g. 4.2.1 (required)")
	cmd.MarkFlagRequired("local")
	cmd.MarkFlagRequired("version")

	cmd.Flags().StringVar(&verifyOpts.Platform, "platform", "", "build platform (default from config)")
	cmd.Flags().StringVar(&verifyOpts.IndexURL, "index-url", "", "build index endpoint (default from config)")
	cmd.Flags().BoolVar(&verifyOpts.KeepTemp, "keep-temp", false, "keep downloaded and extracted files")
	cmd.Flags().StringVar(&verifyOpts.ReportFile, "report", "", "write report to file")
	cmd.Flags().StringVar(&verifyOpts.ReportFormat, "report-format", "human", "report file format: human, json")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verifyOpts.Platform != "" {
		cfg.Verify.Platform = verifyOpts.Platform
	}
	if verifyOpts.IndexURL != "" {
		cfg.Verify.IndexURL = verifyOpts.IndexURL
	}
	if cfg.Verify.IndexURL == "" {
		return fmt.Errorf("no build index configured (set verify.index_url or --index-url)")
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	workRoot, err := platform.WorkRoot()
	if err != nil {
		return err
	}
	if !verifyOpts.KeepTemp {
		defer cleanupWork(workRoot)
	}

	// Resolve the reference build before any download attempt
	index := buildindex.NewClient(cfg.Verify.IndexURL)
	desc, err := index.Lookup(ctx, cfg.Verify.Platform, verifyOpts.Version)
	if err != nil {
		return err
	}
	logger.Info(ctx, "resolved reference build", logging.Fields{
		"version": desc.Version,
		"archive": desc.ArchiveName,
		"size":    desc.Size,
	})

	// Download and checksum-verify the reference archive. An
	// unverified archive must never be extracted.
	archivePath := filepath.Join(workRoot, desc.ArchiveName)
	limiter := ratelimit.NewLimiter(cfg.Performance.BandwidthLimit)
	downloader := fetch.NewDownloader(limiter, cfg.Output.Progress && !globalFlags.Quiet)
	if err := downloader.Download(ctx, desc.DownloadURL, archivePath); err != nil {
		return err
	}
	if err := fetch.VerifySHA1(archivePath, desc.SHA1); err != nil {
		return err
	}
	logger.Info(ctx, "reference archive verified", logging.Fields{"archive": archivePath})

	referenceRoot, err := fetch.ExtractToTemp(ctx, archivePath, workRoot)
	if err != nil {
		return fmt.Errorf("failed to extract reference archive: %w", err)
	}

	localRoot := platform.NormalizePath(verifyOpts.Local)
	if strings.EqualFold(filepath.Ext(localRoot), ".zip") {
		localRoot, err = fetch.ExtractToTemp(ctx, localRoot, workRoot)
		if err != nil {
			return fmt.Errorf("failed to extract local archive: %w", err)
		}
	}

	local, err := storage.NewLocal(localRoot)
	if err != nil {
		return fmt.Errorf("failed to open local tree: %w", err)
	}
	defer local.Close()

	reference, err := storage.NewLocal(referenceRoot)
	if err != nil {
		return fmt.Errorf("failed to open reference tree: %w", err)
	}
	defer reference.Close()

	differ := buildDiffer(cfg, logger)
	report, err := differ.Diff(ctx, local, reference)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if err := renderReport(report, cfg, verifyOpts.ReportFile, verifyOpts.ReportFormat); err != nil {
		return err
	}

	if !verifyOpts.KeepTemp {
		cleanupWork(workRoot)
	}
	os.Exit(report.Verdict().ExitCode())
	return nil
}

func cleanupWork(workRoot string) {
	os.RemoveAll(workRoot)
}
