package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// Writer writes a VCF file. Files created on disk use BGZF framing so a
// tabix index can be layered on top.
type Writer struct {
	w    *bufio.Writer
	bg   *bgzf.Writer
	file *os.File
}

// Create opens a BGZF-compressed VCF writer at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create vcf file: %w", err)
	}
	bg := bgzf.NewWriter(f, 0)
	return &Writer{w: bufio.NewWriter(bg), bg: bg, file: f}, nil
}

// NewWriter writes uncompressed VCF to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the "##" block and the #CHROM line for the given
// sample names.
func (w *Writer) WriteHeader(header []string, samples []string) error {
	for _, line := range header {
		if _, err := w.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	chrom := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"
	if len(samples) > 0 {
		chrom += "\tFORMAT\t" + strings.Join(samples, "\t")
	}
	_, err := w.w.WriteString(chrom + "\n")
	return err
}

// WriteRecord writes one data line.
func (w *Writer) WriteRecord(rec *Record) error {
	_, err := w.w.WriteString(rec.String() + "\n")
	return err
}

// Close flushes buffered data and, for BGZF output, appends the EOF
// magic block.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.bg != nil {
		if err := w.bg.Close(); err != nil {
			return err
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// WriteFile writes an in-memory VCF to a BGZF-compressed file.
func WriteFile(path string, f *File) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := w.WriteHeader(f.Header, f.Samples); err != nil {
		w.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range f.Records {
		if err := w.WriteRecord(rec); err != nil {
			w.Close()
			return fmt.Errorf("write record %s:%d: %w", rec.Chrom, rec.Pos, err)
		}
	}
	return w.Close()
}
