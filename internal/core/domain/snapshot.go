package domain

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// SnapshotNameLayout is the time layout of default snapshot names.
const SnapshotNameLayout = "2006_01_02_150405"

// Workspace layout relative to the project directory.
const (
	ValidDirName     = "30_eva_valid"
	ProcessedDirName = "processed"
	ManifestFileName = "file_list.csv"
	MetricsFileName  = "metrics.prom"
	AssemblyCheckDir = "assembly_check"
)

// SnapshotArchiveSuffix is stripped from archive names to name snapshots.
const SnapshotArchiveSuffix = ".tar.gz"

// Snapshot is one named acquisition run and its workspace.
// Its identity is fixed once created: resume reopens, never renames.
type Snapshot struct {
	// Name identifies the run (defaults to a creation timestamp).
	Name string

	// Root is the workspace directory holding transferred files.
	Root string

	// ChunkSize is the maximum fan-in of a concatenation node.
	ChunkSize int

	// Resumed is true when the workspace was reopened.
	Resumed bool
}

// DefaultSnapshotName derives a snapshot name from t.
func DefaultSnapshotName(t time.Time) string {
	return t.Format(SnapshotNameLayout)
}

// SnapshotNameFromURL derives a snapshot name from an archive URL, e.g.
// http://host/snapshots/2021_06_28.tar.gz names 2021_06_28. It returns
// an empty name when the URL has no file component.
func SnapshotNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	return strings.TrimSuffix(path.Base(u.Path), SnapshotArchiveSuffix)
}

// SnapshotRoot returns the workspace directory for a snapshot name.
func SnapshotRoot(projectDir, name string) string {
	return filepath.Join(projectDir, ValidDirName, name)
}

// ManifestPath is where the sorted file list is written.
func (s *Snapshot) ManifestPath() string {
	return filepath.Join(s.Root, ManifestFileName)
}

// ProcessingDir is where concatenation stages write their outputs.
func (s *Snapshot) ProcessingDir() string {
	return filepath.Join(s.Root, ProcessedDirName)
}

// MetricsPath is where run metrics are written for a textfile collector.
func (s *Snapshot) MetricsPath() string {
	return filepath.Join(s.Root, MetricsFileName)
}

// AssemblyCheckPath is where assembly check reports are written.
func (s *Snapshot) AssemblyCheckPath() string {
	return filepath.Join(s.Root, AssemblyCheckDir)
}
