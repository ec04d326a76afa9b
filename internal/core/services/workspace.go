package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Workspace manages snapshot directories under a project directory.
// A snapshot directory belongs to one run at a time; the existence checks
// here are what keep two runs from sharing one.
type Workspace struct {
	projectDir string
	chunkSize  int
	now        func() time.Time
}

// NewWorkspace creates a workspace rooted at projectDir.
func NewWorkspace(projectDir string, chunkSize int) *Workspace {
	return &Workspace{
		projectDir: projectDir,
		chunkSize:  chunkSize,
		now:        time.Now,
	}
}

// OpenOrCreate returns the snapshot called name.
//
// Fresh mode creates the workspace and fails with domain.ErrStateConflict if
// the directory already holds anything. Resume mode requires the workspace
// to exist and fails with domain.ErrSnapshotNotFound otherwise. An empty
// name in fresh mode is derived from the current time.
func (w *Workspace) OpenOrCreate(name string, resume bool) (*domain.Snapshot, error) {
	if name == "" {
		if resume {
			return nil, fmt.Errorf("%w: a snapshot name is required to resume", domain.ErrInvalidInput)
		}
		name = domain.DefaultSnapshotName(w.now())
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid snapshot name %q", domain.ErrInvalidInput, name)
	}

	snapshot := &domain.Snapshot{
		Name:      name,
		Root:      domain.SnapshotRoot(w.projectDir, name),
		ChunkSize: w.chunkSize,
		Resumed:   resume,
	}

	if resume {
		info, err := os.Stat(snapshot.Root)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrStateConflict, domain.ErrSnapshotNotFound, snapshot.Root)
		}
		if err != nil {
			return nil, fmt.Errorf("stat snapshot: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrStateConflict, snapshot.Root)
		}
		logger.Info("Resuming snapshot %s in %s", name, snapshot.Root)
		return snapshot, nil
	}

	empty, err := dirEmpty(snapshot.Root)
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, fmt.Errorf("%w: snapshot directory %s already has content; delete it or resume",
			domain.ErrStateConflict, snapshot.Root)
	}
	if err := os.MkdirAll(snapshot.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	logger.Info("Created snapshot %s in %s", name, snapshot.Root)
	return snapshot, nil
}

// Manifest lists the VCF files of the snapshot sorted by name and writes
// them, one path per line, to the manifest file.
func (w *Workspace) Manifest(snapshot *domain.Snapshot) ([]string, error) {
	files, err := ListVCFFiles(snapshot.Root)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, f := range files {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(snapshot.ManifestPath(), []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return files, nil
}

// ResultPath returns where concatenating the current manifest will land.
func (w *Workspace) ResultPath(snapshot *domain.Snapshot) (string, error) {
	files, err := ListVCFFiles(snapshot.Root)
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", nil
	case 1:
		return files[0], nil
	}
	return PredictConcatResult(len(files), snapshot.ChunkSize, snapshot.ProcessingDir())
}

// ListVCFFiles returns the top-level .vcf and .vcf.gz files of dir, sorted.
func ListVCFFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot files: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isVCF(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isVCF(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".vcf") || strings.HasSuffix(lower, ".vcf.gz")
}

// dirEmpty reports whether dir is missing or has no entries.
func dirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", dir, err)
	}
	return len(entries) == 0, nil
}
