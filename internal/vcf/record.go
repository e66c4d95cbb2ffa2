// Package vcf provides reading, writing and an in-memory model for
// block-compressed VCF files.
package vcf

import (
	"strconv"
	"strings"
)

// Record represents a single data line of a VCF file.
//
// Columns the pipeline never rewrites (ID, QUAL, FILTER, INFO and the
// non-GT portion of each sample column) are kept as raw strings so they
// round-trip byte-identically.
type Record struct {
	Chrom   string   // contig name
	Pos     int      // 1-based reference coordinate
	ID      string   // raw ID column
	Ref     string   // reference allele
	Alt     []string // alternate alleles, order is significant for GT indices
	Qual    string   // raw QUAL column
	Filter  string   // raw FILTER column
	Info    string   // raw INFO column
	Format  []string // FORMAT keys; empty when the file has no sample columns
	Samples []Genotype
}

// AltString returns the ALT column as written in the file.
func (r *Record) AltString() string {
	if len(r.Alt) == 0 {
		return "."
	}
	return strings.Join(r.Alt, ",")
}

// InfoMap parses the raw INFO column into key/value pairs.
// Flag-type fields map to the empty string.
func (r *Record) InfoMap() map[string]string {
	m := make(map[string]string)
	if r.Info == "." || r.Info == "" {
		return m
	}
	for _, kv := range strings.Split(r.Info, ";") {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		} else {
			m[kv] = ""
		}
	}
	return m
}

// Alleles returns REF followed by the ALT alleles, matching GT index order.
func (r *Record) Alleles() []string {
	out := make([]string, 0, len(r.Alt)+1)
	out = append(out, r.Ref)
	return append(out, r.Alt...)
}

// IsSymbolic reports whether any allele is a symbolic or structural token
// (e.g. <DEL>, breakend notation, or the spanning-deletion allele).
func (r *Record) IsSymbolic() bool {
	for _, a := range r.Alleles() {
		if !isSequenceAllele(a) {
			return true
		}
	}
	return false
}

// IsIndel reports whether the record describes a length-changing variant.
// Symbolic alleles are not considered indels.
func (r *Record) IsIndel() bool {
	if r.IsSymbolic() {
		return false
	}
	for _, a := range r.Alt {
		if len(a) != len(r.Ref) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Alt = append([]string(nil), r.Alt...)
	c.Format = append([]string(nil), r.Format...)
	c.Samples = make([]Genotype, len(r.Samples))
	copy(c.Samples, r.Samples)
	return &c
}

// String renders the record as a VCF data line without a trailing newline.
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.Itoa(r.Pos))
	sb.WriteByte('\t')
	sb.WriteString(r.ID)
	sb.WriteByte('\t')
	sb.WriteString(r.Ref)
	sb.WriteByte('\t')
	sb.WriteString(r.AltString())
	sb.WriteByte('\t')
	sb.WriteString(r.Qual)
	sb.WriteByte('\t')
	sb.WriteString(r.Filter)
	sb.WriteByte('\t')
	sb.WriteString(r.Info)
	if len(r.Format) > 0 {
		sb.WriteByte('\t')
		sb.WriteString(strings.Join(r.Format, ":"))
		for _, g := range r.Samples {
			sb.WriteByte('\t')
			sb.WriteString(g.String())
		}
	}
	return sb.String()
}

func isSequenceAllele(a string) bool {
	if a == "" {
		return false
	}
	for i := 0; i < len(a); i++ {
		switch a[i] {
		case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		default:
			return false
		}
	}
	return true
}

// File is an in-memory VCF: header lines (the "##" block), the ordered
// sample names from the #CHROM line, and the data records.
type File struct {
	Header  []string
	Samples []string
	Records []*Record
}

// SampleIndex returns the column index of the named sample, or -1.
func (f *File) SampleIndex(name string) int {
	for i, s := range f.Samples {
		if s == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	c := &File{
		Header:  append([]string(nil), f.Header...),
		Samples: append([]string(nil), f.Samples...),
		Records: make([]*Record, len(f.Records)),
	}
	for i, r := range f.Records {
		c.Records[i] = r.Clone()
	}
	return c
}
