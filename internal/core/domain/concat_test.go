package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcatPaths(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/p", "vertical_concat", "stage_1", "concat_output_stage1_batch3.vcf.gz"),
		ConcatOutputPath("/p", 1, 3))
	assert.Equal(t,
		filepath.Join("/p", "vertical_concat", "stage_0", "batch2_files_to_be_concatenated.txt"),
		ConcatFileListPath("/p", 0, 2))
	assert.Equal(t, "concat_stage2_batch0", NodeID{Stage: 2, Batch: 0}.Name())
}

func TestConcatGraph_Lookup(t *testing.T) {
	g := &ConcatGraph{Stages: [][]ConcatNode{
		{{ID: NodeID{0, 0}}, {ID: NodeID{0, 1}}},
		{{ID: NodeID{1, 0}, DependsOn: []NodeID{{0, 0}, {0, 1}}}},
	}}

	node, ok := g.Node(NodeID{1, 0})
	assert.True(t, ok)
	assert.Equal(t, NodeID{1, 0}, node.ID)
	_, ok = g.Node(NodeID{1, 1})
	assert.False(t, ok)
	_, ok = g.Node(NodeID{-1, 0})
	assert.False(t, ok)

	assert.Len(t, g.Nodes(), 3)
	assert.Equal(t, []Edge{{From: NodeID{0, 0}, To: NodeID{1, 0}}, {From: NodeID{0, 1}, To: NodeID{1, 0}}}, g.Edges())
}

func TestSnapshotLayout(t *testing.T) {
	s := &Snapshot{Name: "2024_05_06_070809", Root: SnapshotRoot("/data", "2024_05_06_070809")}

	assert.Equal(t, "2024_05_06_070809", DefaultSnapshotName(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))
	assert.Equal(t, filepath.Join("/data", "30_eva_valid", "2024_05_06_070809"), s.Root)
	assert.Equal(t, filepath.Join(s.Root, "file_list.csv"), s.ManifestPath())
	assert.Equal(t, filepath.Join(s.Root, "processed"), s.ProcessingDir())
	assert.Equal(t, filepath.Join(s.Root, "metrics.prom"), s.MetricsPath())
	assert.Equal(t, filepath.Join(s.Root, "assembly_check"), s.AssemblyCheckPath())
}

func TestSnapshotNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://host/snapshots/2021_06_28_filtered_vcf.tar.gz", "2021_06_28_filtered_vcf"},
		{"https://host/snapshots/2021_06_28.tar.gz?token=x", "2021_06_28"},
		{"https://host/snapshots/archive.tgz", "archive.tgz"},
		{"http://example.org/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapshotNameFromURL(tt.url), tt.url)
	}
}

func TestCoordinateSet(t *testing.T) {
	one := CoordinateDigest{Hi: 1, Lo: 7}
	two := CoordinateDigest{Hi: 2, Lo: 7}
	a, b := make(CoordinateSet), make(CoordinateSet)
	a.Add(one)
	a.Add(two)
	b.Add(two)
	b.Add(two)

	assert.False(t, a.Equal(b))
	onlyA, onlyB := a.Diff(b)
	assert.Equal(t, 1, onlyA)
	assert.Equal(t, 0, onlyB)

	// Same high half alone is not a match.
	b.Add(CoordinateDigest{Hi: 1, Lo: 8})
	assert.False(t, a.Equal(b))

	a.Add(CoordinateDigest{Hi: 1, Lo: 8})
	b.Add(one)
	assert.True(t, a.Equal(b))
	assert.Equal(t, "3 distinct coordinates", a.String())
	assert.Equal(t, "1\t10\tA\tC", Coordinate{"1", "10", "A", "C"}.Key())
}

func TestRunRecord_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, RunRecord{StartedAt: start}.Duration())
	assert.Equal(t, time.Minute, RunRecord{StartedAt: start, FinishedAt: start.Add(time.Minute)}.Duration())
}
