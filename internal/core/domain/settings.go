package domain

import (
	"fmt"
	"time"
)

// Limits on the number of analyses one run may request.
const (
	MinRequestedAnalyses = 1
	MaxRequestedAnalyses = 10000
)

// SARSCoV2TaxonomyID is the taxonomy accepted when none is configured.
const SARSCoV2TaxonomyID = "2697049"

// CatalogSettings configures the remote analysis catalog.
type CatalogSettings struct {
	// BaseURL is the portal API root (e.g. https://www.ebi.ac.uk/ena/portal/api).
	BaseURL string

	// PageSize is the limit used for offset/limit pages. Zero fetches all at once.
	PageSize int

	// RetryMax bounds the extra attempts made for one catalog request.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// RequestsPerSecond throttles catalog requests.
	RequestsPerSecond float64

	// AcceptedTaxonomies lists accepted taxonomy ids. Empty accepts everything.
	AcceptedTaxonomies []string
}

// Transfer clients.
const (
	// TransferClientAscp fetches bulk locations in batches with Aspera.
	TransferClientAscp = "ascp"

	// TransferClientHTTP fetches single-file locations one by one over HTTP.
	TransferClientHTTP = "http"
)

// TransferSettings configures the bulk transfer engine.
type TransferSettings struct {
	// Client selects the transfer tool: TransferClientAscp or TransferClientHTTP.
	Client string

	// AscpBinary is the path to the Aspera client.
	AscpBinary string

	// AsperaKey is the path to the Aspera private key.
	AsperaKey string

	// Bandwidth is passed to the client as its target rate (e.g. 300m).
	Bandwidth string

	// Port is the UDP port for FASP transfers.
	Port int

	// User is the remote account prefixed to every bulk location.
	User string

	// BatchSize is the number of items handed to one transfer call.
	BatchSize int

	// MaxAttempts bounds full passes over the outstanding work set.
	MaxAttempts int

	// InitialBackoff is the first delay between attempts.
	InitialBackoff time.Duration
}

// ConcatSettings configures multi-stage concatenation.
type ConcatSettings struct {
	// ChunkSize is the maximum fan-in of one merge node.
	ChunkSize int

	// BcftoolsBinary is the merge tool.
	BcftoolsBinary string

	// NextflowBinary is the workflow engine.
	NextflowBinary string

	// NextflowConfig is an optional engine config file.
	NextflowConfig string

	// RefseqFasta enables normalisation of every input against this
	// reference before merging. Empty skips normalisation.
	RefseqFasta string
}

// CheckSettings configures the assembly check run on snapshot files.
type CheckSettings struct {
	// AssemblyChecker is the vcf_assembly_checker binary.
	AssemblyChecker string

	// AssemblyReport and AssemblyFasta describe the reference assembly.
	AssemblyReport string
	AssemblyFasta  string
}

// IsConfigured returns true if snapshot files should be assembly checked.
func (c CheckSettings) IsConfigured() bool {
	return c.AssemblyReport != "" && c.AssemblyFasta != ""
}

// PublishSettings configures promotion of validated results to object storage.
type PublishSettings struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// IsConfigured returns true if results should be published.
func (p PublishSettings) IsConfigured() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

// Settings is the explicit configuration object passed to every component.
type Settings struct {
	// ProjectAccession is the catalog project (e.g. PRJEB45554).
	ProjectAccession string

	// ProjectDir is the root directory of all snapshots.
	ProjectDir string

	// LedgerDir holds the progress ledger files.
	LedgerDir string

	Catalog  CatalogSettings
	Transfer TransferSettings
	Concat   ConcatSettings
	Check    CheckSettings
	Publish  PublishSettings
}

// DefaultSettings returns settings matching the production pipeline.
func DefaultSettings() Settings {
	return Settings{
		ProjectAccession: "PRJEB45554",
		Catalog: CatalogSettings{
			BaseURL:            "https://www.ebi.ac.uk/ena/portal/api",
			PageSize:           100000,
			RetryMax:           3,
			RetryWaitMin:       2 * time.Second,
			RetryWaitMax:       2 * time.Minute,
			RequestsPerSecond:  5,
			AcceptedTaxonomies: []string{SARSCoV2TaxonomyID},
		},
		Transfer: TransferSettings{
			Client:         TransferClientAscp,
			AscpBinary:     "ascp",
			Bandwidth:      "300m",
			Port:           33001,
			User:           "era-fasp",
			BatchSize:      100,
			MaxAttempts:    4,
			InitialBackoff: 10 * time.Second,
		},
		Concat: ConcatSettings{
			ChunkSize:      500,
			BcftoolsBinary: "bcftools",
			NextflowBinary: "nextflow",
		},
		Check: CheckSettings{
			AssemblyChecker: "vcf_assembly_checker",
		},
	}
}

// Validate checks the values every run depends on.
func (s Settings) Validate() error {
	if s.Transfer.Client != TransferClientAscp && s.Transfer.Client != TransferClientHTTP {
		return fmt.Errorf("%w: transfer client must be %q or %q, got %q",
			ErrInvalidInput, TransferClientAscp, TransferClientHTTP, s.Transfer.Client)
	}
	if s.Transfer.BatchSize < 1 {
		return fmt.Errorf("%w: transfer batch size must be positive, got %d", ErrInvalidInput, s.Transfer.BatchSize)
	}
	if s.Transfer.MaxAttempts < 1 {
		return fmt.Errorf("%w: transfer attempts must be positive, got %d", ErrInvalidInput, s.Transfer.MaxAttempts)
	}
	if s.Concat.ChunkSize < 2 {
		return fmt.Errorf("%w: concat chunk size must be at least 2, got %d", ErrInvalidInput, s.Concat.ChunkSize)
	}
	if s.Catalog.PageSize < 0 {
		return fmt.Errorf("%w: catalog page size must not be negative", ErrInvalidInput)
	}
	return nil
}
