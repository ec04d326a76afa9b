package domain

import (
	"fmt"
	"strings"
)

// LedgerCategory separates resolved accessions by outcome.
type LedgerCategory string

const (
	// LedgerDone holds accessions whose artifact was transferred.
	LedgerDone LedgerCategory = "done"

	// LedgerExcluded holds accessions permanently filtered out.
	LedgerExcluded LedgerCategory = "excluded"
)

// IsValid returns true if the category is recognised.
func (c LedgerCategory) IsValid() bool {
	return c == LedgerDone || c == LedgerExcluded
}

// LedgerEntry is one resolved accession.
type LedgerEntry struct {
	Accession string
	Location  string
}

// NewLedgerEntry records the ledger entry for an analysis.
func NewLedgerEntry(r AnalysisRecord) LedgerEntry {
	return LedgerEntry{Accession: r.Accession, Location: r.FileLocation}
}

// String encodes the entry as a ledger line without the trailing newline.
func (e LedgerEntry) String() string {
	return e.Accession + "," + e.Location
}

// ParseLedgerLine decodes one ledger line. The accession is the token
// before the first comma; the location is everything after it.
func ParseLedgerLine(line string) (LedgerEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LedgerEntry{}, false
	}
	accession, location, _ := strings.Cut(line, ",")
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return LedgerEntry{}, false
	}
	return LedgerEntry{Accession: accession, Location: strings.TrimSpace(location)}, true
}

// LedgerSet is the de-duplicated view of a ledger category keyed by accession.
type LedgerSet map[string]LedgerEntry

// Contains reports whether accession is in the set.
func (s LedgerSet) Contains(accession string) bool {
	_, ok := s[accession]
	return ok
}

// ValidateCategory checks a category before use by a store.
func ValidateCategory(c LedgerCategory) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: ledger category %q", ErrInvalidInput, c)
	}
	return nil
}
