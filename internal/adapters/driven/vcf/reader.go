// Package vcf reads variant coordinates from plain and bgzip-compressed
// VCF files.
package vcf

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// maxLineSize bounds one VCF record; sample-heavy lines can be long.
const maxLineSize = 64 * 1024 * 1024

// loSeed seeds the second half of a coordinate digest; the first half is
// the unseeded hash.
const loSeed uint64 = 0x9e3779b97f4a7c15

// Ensure Reader implements the interface.
var _ driven.CoordinateReader = (*Reader)(nil)

// Reader collects distinct (CHROM, POS, REF, ALT) digests.
type Reader struct{}

// NewReader creates a coordinate reader.
func NewReader() *Reader {
	return &Reader{}
}

// Distinct returns the distinct coordinates across paths. Multi-allelic ALT
// fields are kept as written.
func (r *Reader) Distinct(ctx context.Context, paths ...string) (domain.CoordinateSet, error) {
	set := make(domain.CoordinateSet)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.readFile(ctx, path, set)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Debug("Read %d records from %s", n, path)
	}
	return set, nil
}

func (r *Reader) readFile(ctx context.Context, path string, set domain.CoordinateSet) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	src, err := open(f)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	return scanRecords(ctx, src, set)
}

// open sniffs the gzip magic so .vcf files that are actually compressed,
// and the reverse, are both handled. gzip.Reader reads every member of a
// BGZF stream by default.
func open(f *os.File) (io.ReadCloser, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr, nil
	}
	return io.NopCloser(br), nil
}

// Digest returns the 128-bit digest of a coordinate.
func Digest(c domain.Coordinate) domain.CoordinateDigest {
	return newDigester().digest(c)
}

type digester struct {
	lo *xxhash.Digest
}

func newDigester() *digester {
	return &digester{lo: xxhash.NewWithSeed(loSeed)}
}

func (d *digester) digest(c domain.Coordinate) domain.CoordinateDigest {
	key := c.Key()
	d.lo.ResetWithSeed(loSeed)
	_, _ = d.lo.WriteString(key)
	return domain.CoordinateDigest{Hi: xxhash.Sum64String(key), Lo: d.lo.Sum64()}
}

func scanRecords(ctx context.Context, src io.Reader, set domain.CoordinateSet) (int, error) {
	d := newDigester()
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)

	records := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		coord, ok := parseCoordinate(line)
		if !ok {
			return records, fmt.Errorf("malformed record at data line %d", records+1)
		}
		set.Add(d.digest(coord))
		records++
		if records%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return records, err
			}
		}
	}
	return records, scanner.Err()
}

// parseCoordinate extracts columns 1, 2, 4 and 5 of a tab-separated record.
func parseCoordinate(line []byte) (domain.Coordinate, bool) {
	var fields [5][]byte
	rest := line
	for i := 0; i < 5; i++ {
		var field []byte
		var found bool
		field, rest, found = bytes.Cut(rest, []byte{'\t'})
		fields[i] = field
		if !found && i < 4 {
			return domain.Coordinate{}, false
		}
	}
	return domain.Coordinate{
		Chrom: string(fields[0]),
		Pos:   string(fields[1]),
		Ref:   strings.ToUpper(string(fields[3])),
		Alt:   strings.ToUpper(string(fields[4])),
	}, true
}
