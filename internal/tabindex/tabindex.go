// Package tabindex builds and queries tabix (.tbi) companion indexes over
// BGZF-compressed VCF files, mapping (chrom, pos) to byte offsets for
// random access.
package tabindex

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/tabix"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// region is a genomic interval satisfying tabix.Record.
type region struct {
	ref        string
	start, end int // 0-based half-open
}

func (r region) RefName() string { return r.ref }
func (r region) Start() int      { return r.start }
func (r region) End() int        { return r.end }

// Build writes a tabix index for the BGZF-compressed VCF at path to
// path+".tbi". The file must already be fully materialized and sorted.
func Build(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bg, err := bgzf.NewReader(f, 0)
	if err != nil {
		return fmt.Errorf("bgzf open %s: %w", path, err)
	}
	defer bg.Close()

	idx := &tabix.Index{
		Format:      2, // VCF
		NameColumn:  1,
		BeginColumn: 2,
		EndColumn:   0,
		MetaChar:    '#',
		Skip:        0,
	}

	// Each line's chunk begins where the previous line ended; LastChunk
	// after a full readLine ends just past the line's newline.
	var prevEnd bgzf.Offset
	for {
		line, err := readLine(bg)
		if len(line) > 0 {
			chunk := bgzf.Chunk{Begin: prevEnd, End: bg.LastChunk().End}
			prevEnd = chunk.End
			if line[0] != '#' {
				rec, perr := vcf.ParseRecord(string(bytes.TrimRight(line, "\r\n")), -1)
				if perr != nil {
					return fmt.Errorf("index %s: %w", path, perr)
				}
				end := rec.Pos - 1 + len(rec.Ref)
				if err := idx.Add(region{ref: rec.Chrom, start: rec.Pos - 1, end: end}, chunk, true, true); err != nil {
					return fmt.Errorf("index %s at %s:%d: %w", path, rec.Chrom, rec.Pos, err)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}

	out, err := os.Create(path + ".tbi")
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	bw := bgzf.NewWriter(out, 0)
	if err := tabix.WriteTo(bw, idx); err != nil {
		bw.Close()
		out.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := bw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("close index: %w", err)
	}
	return out.Close()
}

// Load reads the tabix index companion of the VCF at path.
func Load(path string) (*tabix.Index, error) {
	f, err := os.Open(path + ".tbi")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()
	bg, err := bgzf.NewReader(f, 0)
	if err != nil {
		return nil, fmt.Errorf("bgzf open index: %w", err)
	}
	defer bg.Close()
	idx, err := tabix.ReadFrom(bg)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return idx, nil
}

// Query provides point lookups into an indexed VCF.
type Query struct {
	file *os.File
	bg   *bgzf.Reader
	idx  *tabix.Index
}

// OpenQuery opens the VCF at path together with its .tbi companion.
func OpenQuery(path string) (*Query, error) {
	idx, err := Load(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	bg, err := bgzf.NewReader(f, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bgzf open %s: %w", path, err)
	}
	return &Query{file: f, bg: bg, idx: idx}, nil
}

// Records returns all records whose REF interval overlaps the 1-based
// position pos on chrom.
func (q *Query) Records(chrom string, pos int) ([]*vcf.Record, error) {
	chunks, err := q.idx.Chunks(chrom, pos-1, pos)
	if err != nil {
		// An unknown reference name simply has no records.
		return nil, nil
	}

	var out []*vcf.Record
	for _, c := range chunks {
		if err := q.bg.Seek(c.Begin); err != nil {
			return nil, fmt.Errorf("seek %s:%d: %w", chrom, pos, err)
		}
		for {
			line, err := readLine(q.bg)
			if len(line) > 0 && line[0] != '#' {
				rec, perr := vcf.ParseRecord(string(bytes.TrimRight(line, "\r\n")), -1)
				if perr != nil {
					return nil, perr
				}
				if rec.Chrom == chrom && rec.Pos <= pos && pos < rec.Pos+len(rec.Ref) {
					out = append(out, rec)
				}
				if rec.Chrom == chrom && rec.Pos > pos {
					break
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read chunk: %w", err)
			}
			cur := q.bg.LastChunk()
			if cur.End.File > c.End.File || (cur.End.File == c.End.File && cur.End.Block >= c.End.Block) {
				break
			}
		}
	}
	return out, nil
}

// Close releases the underlying readers.
func (q *Query) Close() error {
	if err := q.bg.Close(); err != nil {
		q.file.Close()
		return err
	}
	return q.file.Close()
}

// readLine reads up to and including the next newline. Reading one byte
// at a time keeps the reader's LastChunk aligned to line boundaries
// instead of buffering past them.
func readLine(r io.Reader) ([]byte, error) {
	var line []byte
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			line = append(line, b[0])
			if b[0] == '\n' {
				return line, nil
			}
		}
		if err != nil {
			return line, err
		}
	}
}
