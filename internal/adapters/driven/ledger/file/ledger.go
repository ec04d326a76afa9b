package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

// Default ledger file names inside the ledger directory.
const (
	ProcessedFileName = "processed_analyses.csv"
	ExcludedFileName  = "excluded_analyses.csv"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is a file-backed implementation of driven.LedgerStore.
type LedgerStore struct {
	mu    sync.Mutex
	paths map[domain.LedgerCategory]string
}

// NewLedgerStore creates a ledger in dir using the default file names.
// The directory is created if it does not exist.
func NewLedgerStore(dir string) (*LedgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return NewLedgerStoreWithPaths(
		filepath.Join(dir, ProcessedFileName),
		filepath.Join(dir, ExcludedFileName),
	), nil
}

// NewLedgerStoreWithPaths creates a ledger over explicit file paths.
func NewLedgerStoreWithPaths(processedPath, excludedPath string) *LedgerStore {
	return &LedgerStore{
		paths: map[domain.LedgerCategory]string{
			domain.LedgerDone:     processedPath,
			domain.LedgerExcluded: excludedPath,
		},
	}
}

// Path returns the file backing a category.
func (s *LedgerStore) Path(category domain.LedgerCategory) string {
	return s.paths[category]
}

// Load reads a category. A missing file is an empty ledger.
func (s *LedgerStore) Load(ctx context.Context, category domain.LedgerCategory) (domain.LedgerSet, error) {
	if err := domain.ValidateCategory(category); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(domain.LedgerSet)
	f, err := os.Open(s.paths[category])
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", category, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if entry, ok := domain.ParseLedgerLine(scanner.Text()); ok {
			set[entry.Accession] = entry
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s ledger: %w", category, err)
	}
	return set, nil
}

// Append writes entries to a category with a single write call.
func (s *LedgerStore) Append(ctx context.Context, category domain.LedgerCategory, entries ...domain.LedgerEntry) error {
	if err := domain.ValidateCategory(category); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.paths[category]
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open %s ledger: %w", category, err)
	}

	var b strings.Builder
	terminated, err := endsWithNewline(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("inspect %s ledger: %w", category, err)
	}
	if !terminated {
		b.WriteByte('\n')
	}
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("append %s ledger: %w", category, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s ledger: %w", category, err)
	}
	return nil
}

// endsWithNewline reports whether f is empty or ends in a newline. A final
// line cut short by an interrupted writer must not absorb the next entry.
func endsWithNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return true, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] == '\n', nil
}
