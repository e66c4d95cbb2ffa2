package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// mapLookup serves position queries from an in-memory file, standing in
// for the tabix-backed query.
type mapLookup struct {
	recs map[string][]*vcf.Record
}

func newMapLookup(f *vcf.File) *mapLookup {
	l := &mapLookup{recs: map[string][]*vcf.Record{}}
	for _, rec := range f.Records {
		l.recs[rec.Chrom] = append(l.recs[rec.Chrom], rec)
	}
	return l
}

func (l *mapLookup) Records(chrom string, pos int) ([]*vcf.Record, error) {
	var out []*vcf.Record
	for _, rec := range l.recs[chrom] {
		if rec.Pos == pos {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestReportMissing(t *testing.T) {
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr1	100	rs1	A	T	.	.	.	GT	0/0",
		"chr1	200	rs2	C	G	.	.	.	GT	0/0",
		"chr1	300	rs3	G	GA	.	.	.	GT	0/0",
		"chr2	50	rs4	T	C	.	.	.	GT	0/0",
	)
	input := parseFile(t, []string{"S1"},
		"chr1	100	.	A	T	.	.	.	GT	0/1",
		"chr1	200	.	C	A	.	.	.	GT	0/1", // wrong ALT, rs2 still missing
		"chr1	300	.	GAA	G	.	.	.	GT	0/1", // indel at rs3: counts as present
	)

	report, err := ReportMissing(tmpl, newMapLookup(input), 1)
	require.NoError(t, err)

	var ids []string
	for _, rec := range report.Records {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"rs2", "rs4"}, ids)
	// The report carries template records verbatim, template sample included.
	assert.Equal(t, []string{"PharmCAT"}, report.Samples)
	assert.Equal(t, "C", report.Records[0].Ref)
}

// Every template record is either covered by the input or listed in the
// report, never both.
func TestReportMissing_Partition(t *testing.T) {
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr1	10	rs10	A	G	.	.	.	GT	0/0",
		"chr1	20	rs20	C	T	.	.	.	GT	0/0",
		"chr1	30	rs30	G	A	.	.	.	GT	0/0",
	)
	input := parseFile(t, []string{"S1"},
		"chr1	20	.	C	T	.	.	.	GT	1/1",
	)

	look := newMapLookup(input)
	report, err := ReportMissing(tmpl, look, 1)
	require.NoError(t, err)

	missing := map[string]bool{}
	for _, rec := range report.Records {
		missing[rec.ID] = true
	}
	for _, want := range tmpl.Records {
		got, err := look.Records(want.Chrom, want.Pos)
		require.NoError(t, err)
		covered := false
		for _, rec := range got {
			if compatible(want, rec) {
				covered = true
			}
		}
		assert.NotEqual(t, covered, missing[want.ID], "record %s", want.ID)
	}
}

// A template row carried through the merge with no subject call is not
// coverage: the position stays in the report.
func TestReportMissing_GenotypeLessRow(t *testing.T) {
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr1	100	rs1	A	T	.	.	.	GT	0/0",
	)
	// Normalized artifact row: subject S1 uncalled, template sample 0/0.
	artifact := parseFile(t, []string{"S1", "PharmCAT"},
		"chr1	100	rs1	A	T	.	.	.	GT	./.	0/0",
	)

	report, err := ReportMissing(tmpl, newMapLookup(artifact), 1)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "rs1", report.Records[0].ID)
}

func TestCompatible(t *testing.T) {
	rec := func(ref string, alt ...string) *vcf.Record {
		return &vcf.Record{Chrom: "chr1", Pos: 100, Ref: ref, Alt: alt}
	}

	// Exact SNP match, case-insensitive.
	assert.True(t, compatible(rec("A", "T"), rec("a", "t")))
	// Same REF, disjoint ALTs.
	assert.False(t, compatible(rec("A", "T"), rec("A", "G")))
	// Shared ALT among several.
	assert.True(t, compatible(rec("A", "T"), rec("A", "G", "T")))
	// Indels match regardless of representation.
	assert.True(t, compatible(rec("AT", "A"), rec("A", "AGG")))
	// Indel vs SNP does not match.
	assert.False(t, compatible(rec("AT", "A"), rec("A", "G")))
	// Template with no ALT is a pure position entry.
	assert.True(t, compatible(rec("A"), rec("A", "G")))
}
