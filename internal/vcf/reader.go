package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Reader reads records from a VCF file.
type Reader struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string
}

// Open creates a reader for the given file. Plain, gzip and BGZF
// compressed files are supported (BGZF is a valid gzip stream).
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	r := &Reader{file: file}

	// Check for the gzip magic number (0x1f, 0x8b).
	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReader creates a reader from an uncompressed stream.
func NewReader(rd io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// parseHeader consumes the "##" block and the #CHROM line.
func (r *Reader) parseHeader() error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				r.sampleNames = fields[9:]
			}
			return nil
		}

		return &ParseError{Line: r.lineNumber, Message: "expected #CHROM header line"}
	}

	return &ParseError{Line: r.lineNumber, Message: "no #CHROM header line found"}
}

// Next reads the next record. Returns nil, nil when there are no more.
func (r *Reader) Next() (*Record, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return nil, nil
			}
		} else {
			return nil, fmt.Errorf("read record line: %w", err)
		}
	}
	r.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return r.Next()
	}

	rec, perr := ParseRecord(line, len(r.sampleNames))
	if perr != nil {
		perr.Line = r.lineNumber
		return nil, perr
	}
	return rec, nil
}

// ParseRecord parses a single VCF data line. sampleCount is the number of
// sample columns declared in the #CHROM line; pass 0 for sites-only files
// and a negative count to skip the column-count check.
func ParseRecord(line string, sampleCount int) (*Record, *ParseError) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields))}
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid position: %s", fields[1])}
	}

	rec := &Record{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
	}
	if fields[4] != "." && fields[4] != "" {
		rec.Alt = strings.Split(fields[4], ",")
	}

	if len(fields) > 8 {
		rec.Format = strings.Split(fields[8], ":")
		hasGT := rec.Format[0] == "GT"
		if got := len(fields) - 9; sampleCount >= 0 && got != sampleCount {
			return nil, &ParseError{Message: fmt.Sprintf("expected %d sample columns, found %d", sampleCount, got)}
		}
		rec.Samples = make([]Genotype, 0, len(fields)-9)
		for _, col := range fields[9:] {
			rec.Samples = append(rec.Samples, ParseGenotype(col, hasGT))
		}
	} else if sampleCount > 0 {
		return nil, &ParseError{Message: fmt.Sprintf("expected %d sample columns, found none", sampleCount)}
	}

	return rec, nil
}

// Header returns the "##" header lines.
func (r *Reader) Header() []string { return r.header }

// SampleNames returns sample names from the #CHROM line.
func (r *Reader) SampleNames() []string { return r.sampleNames }

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadFile loads an entire VCF into memory.
func ReadFile(path string) (*File, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f := &File{
		Header:  append([]string(nil), r.Header()...),
		Samples: append([]string(nil), r.SampleNames()...),
	}
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return f, nil
		}
		f.Records = append(f.Records, rec)
	}
}

// ReadSampleNames returns the sample list of a VCF without reading records.
func ReadSampleNames(path string) ([]string, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return append([]string(nil), r.SampleNames()...), nil
}

// ParseError reports a malformed line with its position in the file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
