package pipeline

import (
	"fmt"
	"strings"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// MergeTemplate merges the renamed input with the template of
// pharmacogenomic positions. The output carries the union of samples and
// positions; at shared positions with a consistent REF the input record is
// rewritten to the template's allele representation, remapping genotype
// indices. Conflicting REF alleles keep both records side by side and are
// collected as IrreconcilableAlleleError anomalies.
func MergeTemplate(input, tmpl *vcf.File) (*vcf.File, []error) {
	out := &vcf.File{
		Header:  mergeHeaders(input.Header, tmpl.Header),
		Samples: append(append([]string(nil), input.Samples...), tmpl.Samples...),
	}

	type tmplEntry struct {
		rec     *vcf.Record
		matched bool
	}
	byPos := make(map[string][]*tmplEntry, len(tmpl.Records))
	entries := make([]*tmplEntry, len(tmpl.Records))
	for i, rec := range tmpl.Records {
		e := &tmplEntry{rec: rec}
		entries[i] = e
		k := posKey(rec.Chrom, rec.Pos)
		byPos[k] = append(byPos[k], e)
	}

	var anomalies []error

	for _, rec := range input.Records {
		candidates := byPos[posKey(rec.Chrom, rec.Pos)]

		var match *tmplEntry
		for _, e := range candidates {
			if strings.EqualFold(e.rec.Ref, rec.Ref) {
				match = e
				break
			}
		}

		switch {
		case match != nil:
			out.Records = append(out.Records, mergeRecords(rec, match.rec, len(input.Samples), len(tmpl.Samples)))
			match.matched = true
		case len(candidates) > 0:
			// Shared position, incompatible REF. Keep the input record
			// next to the template's; never drop data silently.
			anomalies = append(anomalies, &IrreconcilableAlleleError{
				Chrom:       rec.Chrom,
				Pos:         rec.Pos,
				InputRef:    rec.Ref,
				TemplateRef: candidates[0].rec.Ref,
			})
			out.Records = append(out.Records, padRight(rec, len(tmpl.Samples)))
		default:
			out.Records = append(out.Records, padRight(rec, len(tmpl.Samples)))
		}
	}

	// Template positions the input never touched, template's own records.
	for _, e := range entries {
		if !e.matched {
			out.Records = append(out.Records, padLeft(e.rec, len(input.Samples)))
		}
	}

	SortRecords(out.Records)
	return out, anomalies
}

func posKey(chrom string, pos int) string {
	return fmt.Sprintf("%s:%d", chrom, pos)
}

// mergeRecords rewrites an input record to the template's representation.
// The template's REF and ALT ordering win; input ALT alleles the template
// does not list are appended. Input genotype indices are remapped, the
// template sample's genotypes are carried unchanged.
func mergeRecords(in, tmpl *vcf.Record, nIn, nTmpl int) *vcf.Record {
	merged := in.Clone()
	merged.Ref = tmpl.Ref
	merged.Alt = append([]string(nil), tmpl.Alt...)
	if merged.ID == "." && tmpl.ID != "." {
		merged.ID = tmpl.ID
	}

	for _, alt := range in.Alt {
		if findAllele(merged.Alt, alt) < 0 {
			merged.Alt = append(merged.Alt, alt)
		}
	}

	if len(merged.Format) == 0 {
		merged.Format = []string{"GT"}
	}

	// Old input index -> index in the merged allele list.
	oldAlleles := in.Alleles()
	newAlleles := merged.Alleles()
	remap := func(old int) int {
		if old <= 0 || old >= len(oldAlleles) {
			return old
		}
		if i := findAllele(newAlleles[1:], oldAlleles[old]); i >= 0 {
			return i + 1
		}
		return old
	}

	merged.Samples = merged.Samples[:0]
	for _, g := range in.Samples {
		merged.Samples = append(merged.Samples, g.Remap(remap))
	}
	for _, g := range tmpl.Samples {
		merged.Samples = append(merged.Samples, g.PadTo(len(merged.Format)))
	}
	return merged
}

func findAllele(alleles []string, a string) int {
	for i, x := range alleles {
		if strings.EqualFold(x, a) {
			return i
		}
	}
	return -1
}

// padRight appends missing genotypes for n trailing samples.
func padRight(rec *vcf.Record, n int) *vcf.Record {
	out := rec.Clone()
	if len(out.Format) == 0 && (len(out.Samples) > 0 || n > 0) {
		out.Format = []string{"GT"}
	}
	for i := 0; i < n; i++ {
		out.Samples = append(out.Samples, vcf.MissingGenotype(len(out.Format)))
	}
	return out
}

// padLeft prepends missing genotypes for n leading samples.
func padLeft(rec *vcf.Record, n int) *vcf.Record {
	out := rec.Clone()
	if len(out.Format) == 0 {
		out.Format = []string{"GT"}
	}
	pad := make([]vcf.Genotype, 0, n+len(out.Samples))
	for i := 0; i < n; i++ {
		pad = append(pad, vcf.MissingGenotype(len(out.Format)))
	}
	out.Samples = append(pad, out.Samples...)
	return out
}

// mergeHeaders unions header blocks, input lines first, skipping exact
// duplicates from the template.
func mergeHeaders(input, tmpl []string) []string {
	seen := make(map[string]bool, len(input))
	out := append([]string(nil), input...)
	for _, l := range input {
		seen[l] = true
	}
	for _, l := range tmpl {
		if strings.HasPrefix(l, "##fileformat=") || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
