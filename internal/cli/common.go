package cli

import (
	"fmt"
	"os"

	"github.com/bundlecheck/bundlecheck/pkg/bundle"
	"github.com/bundlecheck/bundlecheck/pkg/compare"
	"github.com/bundlecheck/bundlecheck/pkg/config"
	"github.com/bundlecheck/bundlecheck/pkg/logging"
	"github.com/bundlecheck/bundlecheck/pkg/macho"
	"github.com/bundlecheck/bundlecheck/pkg/output"
)

// loadConfig loads configuration from the --config flag or the default
// location
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// buildLogger creates the run logger from configuration
func buildLogger(cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if globalFlags.Verbose {
		level = logging.DebugLevel
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:   cfg.Logging.File,
		Format: logging.Format(cfg.Logging.Format),
		Level:  level,
	})
}

// buildDiffer wires the comparator pipeline from configuration
func buildDiffer(cfg *config.Config, logger logging.Logger) *bundle.Differ {
	sniffer := macho.NewSniffer()
	extractor := macho.NewExtractor(sniffer, cfg.Verify.SignatureSegment)
	classifier := compare.NewClassifier(sniffer, extractor, cfg.Performance.BufferSize)
	filter := bundle.NewFilter(cfg.Verify.ExcludeMarkers)
	return bundle.NewDiffer(classifier, filter, logger, cfg.Performance.MaxWorkers)
}

// renderReport prints the report to stdout and optionally writes it to
// a file
func renderReport(report *bundle.Report, cfg *config.Config, reportPath, reportFormat string) error {
	if !cfg.Output.Quiet && !globalFlags.Quiet {
		var err error
		if cfg.Output.Format == "json" {
			err = output.WriteJSON(os.Stdout, report)
		} else {
			err = output.WriteHuman(os.Stdout, report)
		}
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	if reportPath != "" {
		if err := output.WriteReport(report, reportPath, reportFormat); err != nil {
			return fmt.Errorf("failed to write report file: %w", err)
		}
	}

	return nil
}
