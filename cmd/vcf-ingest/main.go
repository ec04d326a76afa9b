// Command vcf-ingest acquires newly published variant analyses into
// snapshots and merges each snapshot into a single validated VCF.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/catalog/ena"
	configfile "github.com/custodia-labs/vcf-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/exec"
	ledgerfile "github.com/custodia-labs/vcf-ingest/internal/adapters/driven/ledger/file"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/publish/minio"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/transfer/ascp"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/transfer/direct"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/vcf"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driven/workflow/nextflow"
	"github.com/custodia-labs/vcf-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/core/services"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Set at build time via -ldflags.
var version = "dev"

// Process exit codes. A retryable failure leaves ledger and workspace
// consistent, so schedulers may simply run the same command again.
const (
	exitFailure   = 1
	exitDataError = 65
	exitTempFail  = 75
)

// closers are released after the command finishes.
var closers []func() error

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute()
	for _, closeFn := range closers {
		if cerr := closeFn(); cerr != nil {
			logger.Warn("close: %v", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case domain.Retryable(err):
		return exitTempFail
	case errors.Is(err, domain.ErrStateConflict),
		errors.Is(err, domain.ErrValidationMismatch),
		errors.Is(err, domain.ErrInvalidInput):
		return exitDataError
	default:
		return exitFailure
	}
}

// bootstrap wires adapters to core services. When settings do not validate
// only the settings service is returned so the configuration can be fixed.
func bootstrap(configDir string, o cli.Overrides) (*cli.Services, error) {
	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	svc := &cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		return svc, fmt.Errorf("settings: %w", err)
	}
	applyOverrides(settings, o)
	logger.Debug("Project %s in %s, ledger in %s", settings.ProjectAccession, settings.ProjectDir, settings.LedgerDir)

	ledger, err := ledgerfile.NewLedgerStore(settings.LedgerDir)
	if err != nil {
		return svc, err
	}

	runs, err := openRunStore(filepath.Dir(configStore.Path()))
	if err != nil {
		// The run registry is informational; commands still work without it.
		logger.Warn("Run registry unavailable: %v", err)
	}

	var publisher driven.ArtifactPublisher
	if settings.Publish.IsConfigured() {
		p, err := minio.NewPublisher(settings.Publish)
		if err != nil {
			return svc, fmt.Errorf("publisher: %w", err)
		}
		publisher = p
	}

	metrics := prometheus.NewMetrics(settings.ProjectAccession)
	runner := exec.NewRunner()
	workspace := services.NewWorkspace(settings.ProjectDir, settings.Concat.ChunkSize)

	resolver := services.NewCatalogResolver(ena.NewClient(settings.Catalog), ledger, settings.Catalog.PageSize, metrics)
	engine := services.NewTransferEngine(newTransferrer(runner, settings.Transfer), ledger, settings.Transfer, metrics)
	acquisition := services.NewAcquisitionService(
		workspace,
		resolver,
		engine,
		direct.NewClient(settings.Transfer),
		services.RejectTaxonomiesOutside(settings.Catalog.AcceptedTaxonomies...),
		settings.ProjectAccession,
		runs,
		metrics,
	)

	concatenator := services.NewConcatenator(
		nextflow.NewRunner(runner, settings.Concat),
		vcf.NewReader(),
		settings.Concat,
		metrics,
	)
	var checker *services.AssemblyChecker
	if settings.Check.IsConfigured() {
		checker = services.NewAssemblyChecker(runner, vcf.NewReader(), settings.Check)
	} else {
		logger.Debug("Assembly check not configured; merging without it")
	}
	concat := services.NewConcatService(
		workspace,
		checker,
		services.NewInputPreparer(runner, settings.Concat),
		concatenator,
		publisher,
		runs,
		metrics,
		settings.Concat.ChunkSize,
	)

	svc.Acquisition = acquisition
	svc.Concat = concat
	svc.Ingest = services.NewIngestService(acquisition, concat, workspace, runs)
	return svc, nil
}

// newTransferrer picks the client that moves analyses into a snapshot.
func newTransferrer(runner driven.CommandRunner, settings domain.TransferSettings) driven.Transferrer {
	if settings.Client == domain.TransferClientHTTP {
		return direct.NewClient(settings)
	}
	return ascp.NewTransferrer(runner, settings)
}

func applyOverrides(settings *domain.Settings, o cli.Overrides) {
	if o.ProjectDir != "" {
		if settings.LedgerDir == settings.ProjectDir {
			settings.LedgerDir = o.ProjectDir
		}
		settings.ProjectDir = o.ProjectDir
	}
	if o.LedgerDir != "" {
		settings.LedgerDir = o.LedgerDir
	}
	if o.BatchSize > 0 {
		settings.Transfer.BatchSize = o.BatchSize
	}
}

func openRunStore(configDir string) (driven.RunStore, error) {
	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		return nil, err
	}
	closers = append(closers, store.Close)
	return store.RunStore(), nil
}
