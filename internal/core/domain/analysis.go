package domain

import "path"

// AnalysisRecord is one entry of the remote analysis catalog.
// Records are immutable once fetched.
type AnalysisRecord struct {
	// Accession uniquely identifies the analysis (e.g. ERZ3372540).
	Accession string `json:"analysis_accession"`

	// RunRef is the sequencing run the analysis was derived from.
	RunRef string `json:"run_ref"`

	// BulkLocation is the source reference used by the bulk transfer tool.
	BulkLocation string `json:"submitted_aspera"`

	// FileLocation is the source reference for single-file transfer.
	// This is what gets written to the ledger.
	FileLocation string `json:"submitted_ftp"`

	// TaxonomyID is optional; empty when the catalog does not report one.
	TaxonomyID string `json:"tax_id"`
}

// ArtifactName returns the file name the bulk transfer produces for this record.
func (r AnalysisRecord) ArtifactName() string {
	return path.Base(r.BulkLocation)
}

// Source returns the location the given transfer client fetches.
func (r AnalysisRecord) Source(client string) string {
	if client == TransferClientHTTP {
		return r.FileLocation
	}
	return r.BulkLocation
}

// ArtifactNameFor returns the file name the given transfer client produces.
func (r AnalysisRecord) ArtifactNameFor(client string) string {
	return path.Base(r.Source(client))
}

// Accessions returns the accessions of records, in order.
func Accessions(records []AnalysisRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Accession
	}
	return out
}
