package vcf

import (
	"sort"
	"strconv"
	"strings"
)

// Genotype is one sample column of a record. The GT sub-field is parsed
// into allele indices; the remaining FORMAT payload is carried verbatim.
type Genotype struct {
	alleles []int  // indices into REF+ALT; -1 for '.'; nil when the column has no GT
	phased  bool   // separator was '|'
	gt      string // raw GT sub-field as read or last serialized
	extra   string // raw remainder of the column, including the leading ':'
}

// ParseGenotype parses a sample column. hasGT reports whether the record's
// FORMAT starts with GT (per VCF spec GT, when present, comes first).
func ParseGenotype(column string, hasGT bool) Genotype {
	if !hasGT {
		return Genotype{gt: "", extra: column}
	}
	gt := column
	var extra string
	if i := strings.IndexByte(column, ':'); i >= 0 {
		gt, extra = column[:i], column[i:]
	}
	g := Genotype{gt: gt, extra: extra}
	if gt == "" {
		return g
	}
	g.phased = strings.ContainsRune(gt, '|')
	for _, tok := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		if tok == "." {
			g.alleles = append(g.alleles, -1)
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			g.alleles = append(g.alleles, -1)
			continue
		}
		g.alleles = append(g.alleles, n)
	}
	return g
}

// MissingGenotype returns a fully missing diploid call padded to the given
// number of FORMAT fields ("./.:.:." and so on).
func MissingGenotype(formatLen int) Genotype {
	g := Genotype{alleles: []int{-1, -1}, gt: "./."}
	if formatLen > 1 {
		g.extra = strings.Repeat(":.", formatLen-1)
	}
	return g
}

// PadTo replaces the non-GT payload with '.' placeholders for a FORMAT of
// the given length. Used when a record is rewritten under a different
// FORMAT than the one its sample column was read with.
func (g Genotype) PadTo(formatLen int) Genotype {
	out := g
	if out.gt == "" {
		out.gt = "./."
		out.alleles = []int{-1, -1}
	}
	out.extra = ""
	if formatLen > 1 {
		out.extra = strings.Repeat(":.", formatLen-1)
	}
	return out
}

// Alleles returns the parsed allele indices (-1 for missing calls).
func (g Genotype) Alleles() []int { return g.alleles }

// Phased reports whether the call is phased.
func (g Genotype) Phased() bool { return g.phased }

// Missing reports whether the call carries no allele at all, i.e. there is
// no GT sub-field or every allele is '.'.
func (g Genotype) Missing() bool {
	for _, a := range g.alleles {
		if a >= 0 {
			return false
		}
	}
	return true
}

// Remap rewrites every called allele index through fn, keeping missing
// calls and phasing intact. The raw GT sub-field is re-serialized; the
// non-GT payload is untouched.
func (g Genotype) Remap(fn func(int) int) Genotype {
	if len(g.alleles) == 0 {
		return g
	}
	out := g
	out.alleles = make([]int, len(g.alleles))
	for i, a := range g.alleles {
		if a < 0 {
			out.alleles[i] = -1
		} else {
			out.alleles[i] = fn(a)
		}
	}
	out.gt = formatGT(out.alleles, out.phased)
	return out
}

// Merge combines two calls at the same site into one unphased call
// carrying every non-reference allele from both, padded with reference
// alleles up to the receiver's ploidy (0/1 + 0/2 becomes 1/2). Both calls
// must already use the same allele index space. The receiver's non-GT
// payload is kept. Used when split biallelic rows of one site are joined.
func (g Genotype) Merge(other Genotype) Genotype {
	ploidy := len(g.alleles)
	if ploidy == 0 {
		return other
	}
	var nonRef []int
	for _, a := range g.alleles {
		if a > 0 {
			nonRef = append(nonRef, a)
		}
	}
	for _, a := range other.alleles {
		if a > 0 {
			nonRef = append(nonRef, a)
		}
	}
	if len(nonRef) > ploidy {
		nonRef = nonRef[:ploidy]
	}
	sort.Ints(nonRef)

	merged := make([]int, 0, ploidy)
	for i := len(nonRef); i < ploidy; i++ {
		merged = append(merged, 0)
	}
	merged = append(merged, nonRef...)

	out := g
	out.alleles = merged
	out.phased = false
	out.gt = formatGT(merged, false)
	return out
}

// String renders the full sample column.
func (g Genotype) String() string {
	if g.gt == "" {
		return g.extra
	}
	return g.gt + g.extra
}

func formatGT(alleles []int, phased bool) string {
	sep := "/"
	if phased {
		sep = "|"
	}
	parts := make([]string, len(alleles))
	for i, a := range alleles {
		if a < 0 {
			parts[i] = "."
		} else {
			parts[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(parts, sep)
}
