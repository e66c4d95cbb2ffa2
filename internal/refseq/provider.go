// Package refseq provides reference genome sequence access for variant
// normalization, backed by an indexed FASTA file.
package refseq

import (
	"fmt"
	"strings"

	"github.com/brentp/faidx"
)

// Sequence resolves reference bases by 1-based coordinate. The Normalizer
// consumes this interface; tests substitute an in-memory implementation.
type Sequence interface {
	// Base returns the reference base at the 1-based position.
	Base(contig string, pos int) (byte, error)
	// Range returns the bases of the 1-based inclusive interval [start, end].
	Range(contig string, start, end int) (string, error)
	// HasContig reports whether the contig exists in the reference.
	HasContig(contig string) bool
}

// Provider is a Sequence backed by a faidx-indexed FASTA on disk.
// The FASTA must have a .fai companion next to it.
type Provider struct {
	fai  *faidx.Faidx
	path string
}

// Open opens the FASTA at path and its .fai index.
func Open(path string) (*Provider, error) {
	fx, err := faidx.New(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	return &Provider{fai: fx, path: path}, nil
}

// Base returns the reference base at the 1-based position, uppercased.
func (p *Provider) Base(contig string, pos int) (byte, error) {
	s, err := p.Range(contig, pos, pos)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// Range returns the uppercased bases of the 1-based inclusive interval.
func (p *Provider) Range(contig string, start, end int) (string, error) {
	if start < 1 || end < start {
		return "", fmt.Errorf("reference %s: invalid interval %d-%d", contig, start, end)
	}
	// faidx.Get panics past the contig end, so bound the interval first.
	idx, ok := p.fai.Index[contig]
	if !ok {
		return "", fmt.Errorf("reference %s: unknown contig", contig)
	}
	if end > idx.Length {
		return "", fmt.Errorf("reference %s:%d-%d: interval beyond contig end (length %d)", contig, start, end, idx.Length)
	}
	// faidx.Get takes 0-based half-open coordinates.
	s, err := p.fai.Get(contig, start-1, end)
	if err != nil {
		return "", fmt.Errorf("reference %s:%d-%d: %w", contig, start, end, err)
	}
	return strings.ToUpper(s), nil
}

// HasContig reports whether the contig is present in the .fai index.
func (p *Provider) HasContig(contig string) bool {
	_, ok := p.fai.Index[contig]
	return ok
}

// Path returns the location of the underlying FASTA.
func (p *Provider) Path() string { return p.path }

// Close releases the underlying file handles.
func (p *Provider) Close() error {
	p.fai.Close()
	return nil
}
