package services

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

func record(accession string) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		Accession:    accession,
		RunRef:       "ERR" + accession,
		BulkLocation: "fasp.sra.ebi.ac.uk:/vol1/" + accession + "/" + accession + ".vcf.gz",
		FileLocation: "ftp.sra.ebi.ac.uk/vol1/" + accession + "/" + accession + ".vcf.gz",
		TaxonomyID:   domain.SARSCoV2TaxonomyID,
	}
}

func records(accessions ...string) []domain.AnalysisRecord {
	out := make([]domain.AnalysisRecord, len(accessions))
	for i, a := range accessions {
		out[i] = record(a)
	}
	return out
}

// fakeCatalog serves a fixed listing and records the projects queried.
type fakeCatalog struct {
	records   []domain.AnalysisRecord
	listErr   error
	listCalls int
	projects  []string
}

func (c *fakeCatalog) Count(_ context.Context, project string) (int, error) {
	c.projects = append(c.projects, project)
	return len(c.records), nil
}

func (c *fakeCatalog) List(_ context.Context, project string, offset, limit int) ([]domain.AnalysisRecord, error) {
	c.listCalls++
	c.projects = append(c.projects, project)
	if c.listErr != nil {
		return nil, c.listErr
	}
	if offset == 0 && limit == 0 {
		return c.records, nil
	}
	if offset >= len(c.records) {
		return nil, nil
	}
	return c.records[offset:min(offset+limit, len(c.records))], nil
}

// fakeTransferrer writes the artifact of every source it is given, except
// those failing reports as missing for the given call number.
type fakeTransferrer struct {
	mu    sync.Mutex
	calls [][]string

	// missing returns true when source must not appear on call n (1-based).
	missing func(n int, source string) bool
	err     error
}

func (f *fakeTransferrer) Transfer(_ context.Context, sources []string, targetDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), sources...))
	n := len(f.calls)
	for _, src := range sources {
		if f.missing != nil && f.missing(n, src) {
			continue
		}
		if err := os.WriteFile(filepath.Join(targetDir, path.Base(src)), []byte("##fileformat=VCFv4.2\n"), 0o644); err != nil {
			return err
		}
	}
	return f.err
}

// fakeFetcher unpacks a fixed set of files into the target directory.
type fakeFetcher struct {
	files []string
	err   error
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, archiveURL, targetDir string) (int, error) {
	f.urls = append(f.urls, archiveURL)
	for _, name := range f.files {
		if err := os.WriteFile(filepath.Join(targetDir, name), []byte(name+"\n"), 0o644); err != nil {
			return 0, err
		}
	}
	return len(f.files), f.err
}

// fakeRunner records commands and creates the outputs bcftools would.
type fakeRunner struct {
	commands []driven.Command

	// fail maps a bcftools subcommand or a program name to its error.
	fail map[string]error
}

func (r *fakeRunner) Run(_ context.Context, cmd driven.Command) error {
	r.commands = append(r.commands, cmd)
	if err, ok := r.fail[cmd.Args[0]]; ok {
		return err
	}
	if err, ok := r.fail[cmd.Name]; ok {
		return err
	}
	switch cmd.Args[0] {
	case "convert":
		return copyFile(cmd.Args[1], cmd.Args[len(cmd.Args)-1])
	case "norm":
		return copyFile(cmd.Args[len(cmd.Args)-1], argAfter(cmd.Args, "--output"))
	case "index":
		return os.WriteFile(cmd.Args[len(cmd.Args)-1]+".csi", nil, 0o644)
	}
	return nil
}

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeWorkflow materialises each node output by concatenating its inputs.
type fakeWorkflow struct {
	specs []driven.WorkflowSpec
	err   error

	// skipMerge leaves outputs empty to provoke validation failures.
	skipMerge bool
}

func (w *fakeWorkflow) Run(_ context.Context, spec driven.WorkflowSpec) error {
	w.specs = append(w.specs, spec)
	if w.err != nil {
		return w.err
	}
	for _, node := range spec.Graph.Nodes() {
		var content []byte
		if !w.skipMerge {
			for _, in := range node.Inputs {
				b, err := os.ReadFile(in)
				if err != nil {
					return fmt.Errorf("%s: %w", node.ID.Name(), err)
				}
				content = append(content, b...)
			}
		}
		if err := os.WriteFile(node.Output, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// lineReader treats every non-empty line of a file as one coordinate.
type lineReader struct{}

func (lineReader) Distinct(_ context.Context, paths ...string) (domain.CoordinateSet, error) {
	set := make(domain.CoordinateSet)
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		start := 0
		for i := 0; i <= len(b); i++ {
			if i == len(b) || b[i] == '\n' {
				if i > start {
					set.Add(domain.CoordinateDigest{Hi: xxhash.Sum64(b[start:i]), Lo: uint64(i - start)})
				}
				start = i + 1
			}
		}
	}
	return set, nil
}

// fakePublisher records uploads.
type fakePublisher struct {
	published map[string]string
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, localPath, key string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.published == nil {
		p.published = make(map[string]string)
	}
	p.published[key] = localPath
	return "s3://variants/" + key, nil
}

// countingMetrics records observations.
type countingMetrics struct {
	candidates, excluded, calls, transferred, retried, nodes int
	flushed                                                  []string
}

func (m *countingMetrics) CandidatesResolved(n int)  { m.candidates += n }
func (m *countingMetrics) AnalysesExcluded(n int)    { m.excluded += n }
func (m *countingMetrics) TransferCalled()           { m.calls++ }
func (m *countingMetrics) AnalysesTransferred(n int) { m.transferred += n }
func (m *countingMetrics) TransferRetried()          { m.retried++ }
func (m *countingMetrics) ConcatNodesBuilt(n int)    { m.nodes += n }
func (m *countingMetrics) Flush(path string) error {
	m.flushed = append(m.flushed, path)
	return nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}

func writeVCF(dir, name string, lines ...string) string {
	p := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		panic(err)
	}
	return p
}
