// Package file provides the TOML-backed ConfigStore.
// Configuration lives in a single file that can be edited by hand or
// through `vcf-ingest settings set`.
package file
