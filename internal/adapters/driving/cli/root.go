// Package cli provides the vcf-ingest command line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// settingsOnlyAnnotation marks commands that still run when settings do not
// validate, so that a broken configuration can be inspected and repaired.
const settingsOnlyAnnotation = "settings-only"

var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Overrides are command-line values that take precedence over settings.
type Overrides struct {
	ProjectDir string
	LedgerDir  string
	BatchSize  int
}

var overrides Overrides

// Services are the driving ports the commands call.
type Services struct {
	Acquisition driving.AcquisitionService
	Concat      driving.ConcatService
	Ingest      driving.IngestService
	Settings    driving.SettingsService
}

// Bootstrap composes services once flags are parsed. It may return partial
// services together with an error; Settings should be set whenever the
// configuration file itself could be read.
type Bootstrap func(configDir string, o Overrides) (*Services, error)

var bootstrap Bootstrap

// Service instances used by the commands.
var (
	acquisitionService driving.AcquisitionService
	concatService      driving.ConcatService
	ingestService      driving.IngestService
	settingsService    driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "vcf-ingest",
	Short: "Acquire and merge genomic variant snapshots",
	Long: `vcf-ingest downloads newly published variant analyses of a project into
dated snapshots and merges each snapshot into a single validated VCF
through a multi-stage concatenation workflow.

Downloads are resumable: every transferred analysis is recorded in a
progress ledger and never fetched again.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.vcf-ingest)")
}

// SetVersion sets the version reported by `vcf-ingest version`.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that composes services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(configDir, overrides)
	if svc != nil {
		acquisitionService = svc.Acquisition
		concatService = svc.Concat
		ingestService = svc.Ingest
		settingsService = svc.Settings
	}
	if err != nil {
		if isSettingsOnly(cmd) && settingsService != nil {
			logger.Warn("%v", err)
			return nil
		}
		return fmt.Errorf("initialise: %w", err)
	}
	return nil
}

func isSettingsOnly(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[settingsOnlyAnnotation]; ok {
			return true
		}
	}
	return false
}

func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
