package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// contigRank orders contigs the way the GRCh38 analysis set lays them out:
// chr1..chr22, chrX, chrY, chrM, then everything else lexicographically.
func contigRank(c string) int {
	name := strings.TrimPrefix(c, "chr")
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= 22 {
		return n
	}
	switch name {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	return 1 << 30
}

// chromLess orders contig names by reference rank, falling back to the
// names themselves for contigs outside the primary assembly.
func chromLess(a, b string) bool {
	ra, rb := contigRank(a), contigRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// SortRecords stable-sorts records by (chrom, pos) in reference contig
// order. Stability keeps same-position records in their existing order.
func SortRecords(recs []*vcf.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Chrom != recs[j].Chrom {
			return chromLess(recs[i].Chrom, recs[j].Chrom)
		}
		return recs[i].Pos < recs[j].Pos
	})
}
