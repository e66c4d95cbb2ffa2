package pipeline

import (
	"strings"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// PositionLookup resolves the records overlapping a 1-based position in
// the normalized artifact. The tabix-backed query implements this; tests
// substitute an in-memory map.
type PositionLookup interface {
	Records(chrom string, pos int) ([]*vcf.Record, error)
}

// ReportMissing computes the template positions absent from the normalized
// input. The merged artifact carries every template position, so presence
// means more than the row existing: a position counts as covered only when
// at least one of the leading subjectSamples genotype columns holds a
// call (template rows the input never touched are genotype-less there).
// Equality is indel-aware: records at the same position count as the same
// entry when any allele pair matches exactly, or when both sides are
// indels regardless of exact REF/ALT agreement. The result holds the
// template's own records, never anything synthesized from the input.
func ReportMissing(tmpl *vcf.File, look PositionLookup, subjectSamples int) (*vcf.File, error) {
	out := &vcf.File{
		Header:  append([]string(nil), tmpl.Header...),
		Samples: append([]string(nil), tmpl.Samples...),
	}

	for _, want := range tmpl.Records {
		got, err := look.Records(want.Chrom, want.Pos)
		if err != nil {
			return nil, err
		}
		found := false
		for _, rec := range got {
			if rec.Pos == want.Pos && called(rec, subjectSamples) && compatible(want, rec) {
				found = true
				break
			}
		}
		if !found {
			out.Records = append(out.Records, want.Clone())
		}
	}

	SortRecords(out.Records)
	return out, nil
}

// called reports whether any of the first n genotype columns holds a
// non-missing call. n <= 0 means consider every column.
func called(rec *vcf.Record, n int) bool {
	if len(rec.Samples) == 0 {
		// Sites-only rows have no calls to inspect; presence counts.
		return true
	}
	if n <= 0 || n > len(rec.Samples) {
		n = len(rec.Samples)
	}
	for _, g := range rec.Samples[:n] {
		if !g.Missing() {
			return true
		}
	}
	return false
}

// compatible implements the indel-aware equality notion: indel records at
// one position are all the same entry; everything else needs an exact REF
// match plus at least one shared ALT allele.
func compatible(a, b *vcf.Record) bool {
	if a.IsIndel() && b.IsIndel() {
		return true
	}
	if !strings.EqualFold(a.Ref, b.Ref) {
		return false
	}
	for _, alt := range a.Alt {
		if findAllele(b.Alt, alt) >= 0 {
			return true
		}
	}
	// A template record listing no ALT is a pure position entry.
	return len(a.Alt) == 0
}
