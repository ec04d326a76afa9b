package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyProjectAccession   = "project.accession"
	keyProjectDir         = "project.dir"
	keyLedgerDir          = "ledger.dir"
	keyCatalogBaseURL     = "catalog.base_url"
	keyCatalogPageSize    = "catalog.page_size"
	keyCatalogRetryMax    = "catalog.retry_max"
	keyCatalogWaitMin     = "catalog.retry_wait_min_seconds"
	keyCatalogWaitMax     = "catalog.retry_wait_max_seconds"
	keyCatalogRate        = "catalog.requests_per_second"
	keyCatalogTaxonomies  = "catalog.accepted_taxonomies"
	keyTransferClient     = "transfer.client"
	keyTransferBinary     = "transfer.ascp_binary"
	keyTransferKey        = "transfer.aspera_key"
	keyTransferBandwidth  = "transfer.bandwidth"
	keyTransferPort       = "transfer.port"
	keyTransferUser       = "transfer.user"
	keyTransferBatchSize  = "transfer.batch_size"
	keyTransferAttempts   = "transfer.max_attempts"
	keyTransferBackoff    = "transfer.initial_backoff_seconds"
	keyConcatChunkSize    = "concat.chunk_size"
	keyConcatBcftools     = "concat.bcftools_binary"
	keyConcatNextflow     = "concat.nextflow_binary"
	keyConcatNextflowConf = "concat.nextflow_config"
	keyConcatRefseqFasta  = "concat.refseq_fasta"
	keyCheckBinary        = "check.assembly_checker_binary"
	keyCheckReport        = "check.assembly_report"
	keyCheckFasta         = "check.assembly_fasta"
	keyPublishEndpoint    = "publish.endpoint"
	keyPublishBucket      = "publish.bucket"
	keyPublishAccessKey   = "publish.access_key"
	keyPublishSecretKey   = "publish.secret_key"
	keyPublishUseSSL      = "publish.use_ssl"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

// settingsKeys maps every supported key to the type its value is parsed as.
var settingsKeys = map[string]valueKind{
	keyProjectAccession:   kindString,
	keyProjectDir:         kindString,
	keyLedgerDir:          kindString,
	keyCatalogBaseURL:     kindString,
	keyCatalogPageSize:    kindInt,
	keyCatalogRetryMax:    kindInt,
	keyCatalogWaitMin:     kindFloat,
	keyCatalogWaitMax:     kindFloat,
	keyCatalogRate:        kindFloat,
	keyCatalogTaxonomies:  kindList,
	keyTransferClient:     kindString,
	keyTransferBinary:     kindString,
	keyTransferKey:        kindString,
	keyTransferBandwidth:  kindString,
	keyTransferPort:       kindInt,
	keyTransferUser:       kindString,
	keyTransferBatchSize:  kindInt,
	keyTransferAttempts:   kindInt,
	keyTransferBackoff:    kindFloat,
	keyConcatChunkSize:    kindInt,
	keyConcatBcftools:     kindString,
	keyConcatNextflow:     kindString,
	keyConcatNextflowConf: kindString,
	keyConcatRefseqFasta:  kindString,
	keyCheckBinary:        kindString,
	keyCheckReport:        kindString,
	keyCheckFasta:         kindString,
	keyPublishEndpoint:    kindString,
	keyPublishBucket:      kindString,
	keyPublishAccessKey:   kindString,
	keyPublishSecretKey:   kindString,
	keyPublishUseSSL:      kindBool,
}

// SettingsService resolves settings from a config store over defaults.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Keys absent from the store keep their
// defaults. The result is validated before it is returned.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		ProjectAccession: s.getString(keyProjectAccession, d.ProjectAccession),
		ProjectDir:       s.getString(keyProjectDir, "."),
		LedgerDir:        s.configStore.GetString(keyLedgerDir),
		Catalog: domain.CatalogSettings{
			BaseURL:            s.getString(keyCatalogBaseURL, d.Catalog.BaseURL),
			PageSize:           s.getInt(keyCatalogPageSize, d.Catalog.PageSize),
			RetryMax:           s.getInt(keyCatalogRetryMax, d.Catalog.RetryMax),
			RetryWaitMin:       s.getSeconds(keyCatalogWaitMin, d.Catalog.RetryWaitMin),
			RetryWaitMax:       s.getSeconds(keyCatalogWaitMax, d.Catalog.RetryWaitMax),
			RequestsPerSecond:  s.getFloat(keyCatalogRate, d.Catalog.RequestsPerSecond),
			AcceptedTaxonomies: s.getList(keyCatalogTaxonomies, d.Catalog.AcceptedTaxonomies),
		},
		Transfer: domain.TransferSettings{
			Client:         s.getString(keyTransferClient, d.Transfer.Client),
			AscpBinary:     s.getString(keyTransferBinary, d.Transfer.AscpBinary),
			AsperaKey:      s.configStore.GetString(keyTransferKey),
			Bandwidth:      s.getString(keyTransferBandwidth, d.Transfer.Bandwidth),
			Port:           s.getInt(keyTransferPort, d.Transfer.Port),
			User:           s.getString(keyTransferUser, d.Transfer.User),
			BatchSize:      s.getInt(keyTransferBatchSize, d.Transfer.BatchSize),
			MaxAttempts:    s.getInt(keyTransferAttempts, d.Transfer.MaxAttempts),
			InitialBackoff: s.getSeconds(keyTransferBackoff, d.Transfer.InitialBackoff),
		},
		Concat: domain.ConcatSettings{
			ChunkSize:      s.getInt(keyConcatChunkSize, d.Concat.ChunkSize),
			BcftoolsBinary: s.getString(keyConcatBcftools, d.Concat.BcftoolsBinary),
			NextflowBinary: s.getString(keyConcatNextflow, d.Concat.NextflowBinary),
			NextflowConfig: s.configStore.GetString(keyConcatNextflowConf),
			RefseqFasta:    s.configStore.GetString(keyConcatRefseqFasta),
		},
		Check: domain.CheckSettings{
			AssemblyChecker: s.getString(keyCheckBinary, d.Check.AssemblyChecker),
			AssemblyReport:  s.configStore.GetString(keyCheckReport),
			AssemblyFasta:   s.configStore.GetString(keyCheckFasta),
		},
		Publish: domain.PublishSettings{
			Endpoint:  s.configStore.GetString(keyPublishEndpoint),
			Bucket:    s.configStore.GetString(keyPublishBucket),
			AccessKey: s.configStore.GetString(keyPublishAccessKey),
			SecretKey: s.configStore.GetString(keyPublishSecretKey),
			UseSSL:    s.configStore.GetBool(keyPublishUseSSL),
		},
	}
	if settings.LedgerDir == "" {
		settings.LedgerDir = settings.ProjectDir
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses value by the type of key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingsKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = b
	case kindList:
		parsed = splitList(value)
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every supported configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsKeys))
	for k := range settingsKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, def time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return time.Duration(s.configStore.GetFloat(key) * float64(time.Second))
}

func (s *SettingsService) getList(key string, def []string) []string {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetStringSlice(key)
}

// splitList parses a comma separated value, dropping blanks.
func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
