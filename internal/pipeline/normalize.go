package pipeline

import (
	"strings"

	"github.com/pgxtools/pgxprep/internal/refseq"
	"github.com/pgxtools/pgxprep/internal/vcf"
)

// NormalizeStats summarizes the work done by Normalize.
type NormalizeStats struct {
	LeftAligned int
	Joined      int
	Mismatches  int
}

// Normalize left-aligns indels against the reference sequence and joins
// biallelic records sharing (chrom, pos, REF) into multi-allelic records.
// Records whose REF disagrees with the reference are collected as
// anomalies and passed through byte-identical; in strict mode the first
// mismatch is fatal. Symbolic alleles pass through verbatim.
func Normalize(f *vcf.File, ref refseq.Sequence, strict bool) (*vcf.File, NormalizeStats, []error, error) {
	out := &vcf.File{
		Header:  append([]string(nil), f.Header...),
		Samples: append([]string(nil), f.Samples...),
	}

	var stats NormalizeStats
	var anomalies []error

	for _, rec := range f.Records {
		c := rec.Clone()
		if !c.IsSymbolic() && ref.HasContig(c.Chrom) {
			actual, err := ref.Range(c.Chrom, c.Pos, c.Pos+len(c.Ref)-1)
			switch {
			case err != nil || !strings.EqualFold(actual, c.Ref):
				mismatch := &ReferenceMismatchError{Chrom: c.Chrom, Pos: c.Pos, Ref: c.Ref, Actual: actual}
				if strict {
					return nil, stats, anomalies, mismatch
				}
				anomalies = append(anomalies, mismatch)
				stats.Mismatches++
			default:
				shifted, err := leftAlign(c, ref)
				if err != nil {
					return nil, stats, anomalies, err
				}
				if shifted {
					stats.LeftAligned++
				}
			}
		}
		out.Records = append(out.Records, c)
	}

	SortRecords(out.Records)
	out.Records = joinMultiAllelic(out.Records, &stats)
	return out, stats, anomalies, nil
}

// leftAlign shifts an indel's anchor left until no further shift preserves
// an equivalent variant, per the usual trim-and-extend algorithm: drop a
// base shared by every allele's tail, refilling from the reference when an
// allele empties, then drop shared leading bases.
func leftAlign(rec *vcf.Record, ref refseq.Sequence) (bool, error) {
	alleles := rec.Alleles()
	if len(alleles) < 2 {
		return false, nil
	}
	changed := false

	for sharesLastBase(alleles) {
		needsExtend := false
		for _, a := range alleles {
			if len(a) == 1 {
				needsExtend = true
			}
		}
		if needsExtend && rec.Pos == 1 {
			break
		}

		for i, a := range alleles {
			alleles[i] = a[:len(a)-1]
		}
		if needsExtend {
			b, err := ref.Base(rec.Chrom, rec.Pos-1)
			if err != nil {
				return false, err
			}
			for i, a := range alleles {
				alleles[i] = string(b) + a
			}
			rec.Pos--
		}
		changed = true
	}

	for sharesFirstBase(alleles) {
		for i, a := range alleles {
			alleles[i] = a[1:]
		}
		rec.Pos++
		changed = true
	}

	if changed {
		rec.Ref = alleles[0]
		rec.Alt = alleles[1:]
	}
	return changed, nil
}

// sharesLastBase reports whether every allele ends with the same base.
func sharesLastBase(alleles []string) bool {
	last := upperByte(alleles[0][len(alleles[0])-1])
	for _, a := range alleles[1:] {
		if upperByte(a[len(a)-1]) != last {
			return false
		}
	}
	return true
}

// sharesFirstBase reports whether every allele starts with the same base
// and is long enough to lose it.
func sharesFirstBase(alleles []string) bool {
	first := upperByte(alleles[0][0])
	for _, a := range alleles {
		if len(a) < 2 || upperByte(a[0]) != first {
			return false
		}
	}
	return true
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// joinMultiAllelic merges runs of records sharing (chrom, pos, REF) into
// one record whose ALT is the first-seen union, remapping every sample's
// genotype indices. Records at the same position with a different REF stay
// separate; symbolic records are never joined. Input must be sorted.
func joinMultiAllelic(recs []*vcf.Record, stats *NormalizeStats) []*vcf.Record {
	out := make([]*vcf.Record, 0, len(recs))

	for i := 0; i < len(recs); {
		base := recs[i]
		j := i + 1
		if base.IsSymbolic() {
			out = append(out, base)
			i = j
			continue
		}
		for j < len(recs) &&
			recs[j].Chrom == base.Chrom &&
			recs[j].Pos == base.Pos &&
			!recs[j].IsSymbolic() &&
			strings.EqualFold(recs[j].Ref, base.Ref) {
			joinInto(base, recs[j])
			stats.Joined++
			j++
		}
		out = append(out, base)
		i = j
	}
	return out
}

// joinInto folds other's ALT alleles and genotype calls into base.
func joinInto(base, other *vcf.Record) {
	for _, alt := range other.Alt {
		if findAllele(base.Alt, alt) < 0 {
			base.Alt = append(base.Alt, alt)
		}
	}

	otherAlleles := other.Alleles()
	baseAlleles := base.Alleles()
	remap := func(old int) int {
		if old <= 0 || old >= len(otherAlleles) {
			return old
		}
		if i := findAllele(baseAlleles[1:], otherAlleles[old]); i >= 0 {
			return i + 1
		}
		return old
	}

	sameFormat := equalFormat(base.Format, other.Format)
	for i := range base.Samples {
		if i >= len(other.Samples) || other.Samples[i].Missing() {
			continue
		}
		g := other.Samples[i].Remap(remap)
		if !sameFormat {
			g = g.PadTo(len(base.Format))
		}
		if base.Samples[i].Missing() {
			base.Samples[i] = g
		} else {
			// The sample is called on both rows: the split representation
			// of a het-alt genotype. Union the non-ref alleles.
			base.Samples[i] = base.Samples[i].Merge(g)
		}
	}
}

func equalFormat(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
