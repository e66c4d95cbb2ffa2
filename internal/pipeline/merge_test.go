package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTemplate_SubsetAdoptsTemplateRepresentation(t *testing.T) {
	input := parseFile(t, []string{"S1", "S2"},
		"chr10	100	.	A	G	50	PASS	.	GT	0/1	1/1",
	)
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr10	100	rs111	A	T,G	.	.	.	GT	0/0",
	)

	out, anomalies := MergeTemplate(input, tmpl)
	require.Empty(t, anomalies)
	require.Len(t, out.Records, 1)
	assert.Equal(t, []string{"S1", "S2", "PharmCAT"}, out.Samples)

	rec := out.Records[0]
	// Template allele list wins; input G is index 2 now.
	assert.Equal(t, "A", rec.Ref)
	assert.Equal(t, []string{"T", "G"}, rec.Alt)
	assert.Equal(t, "rs111", rec.ID)
	assert.Equal(t, []int{0, 2}, rec.Samples[0].Alleles())
	assert.Equal(t, []int{2, 2}, rec.Samples[1].Alleles())
	assert.Equal(t, []int{0, 0}, rec.Samples[2].Alleles())
}

func TestMergeTemplate_NovelAltAppended(t *testing.T) {
	input := parseFile(t, []string{"S1"},
		"chr10	100	.	A	C	.	.	.	GT	0/1",
	)
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr10	100	.	A	T,G	.	.	.	GT	0/0",
	)

	out, anomalies := MergeTemplate(input, tmpl)
	require.Empty(t, anomalies)
	rec := out.Records[0]
	assert.Equal(t, []string{"T", "G", "C"}, rec.Alt)
	// Genotype indices remapped, never dangling.
	assert.Equal(t, []int{0, 3}, rec.Samples[0].Alleles())
	for _, a := range rec.Samples[0].Alleles() {
		assert.Less(t, a, len(rec.Alt)+1)
	}
}

func TestMergeTemplate_ConflictRetainsBoth(t *testing.T) {
	input := parseFile(t, []string{"S1"},
		"chr10	100	.	AT	A	.	.	.	GT	0/1",
	)
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr10	100	.	G	C	.	.	.	GT	0/0",
	)

	out, anomalies := MergeTemplate(input, tmpl)
	require.Len(t, anomalies, 1)
	var conflict *IrreconcilableAlleleError
	require.ErrorAs(t, anomalies[0], &conflict)
	assert.Equal(t, "AT", conflict.InputRef)
	assert.Equal(t, "G", conflict.TemplateRef)

	// Both records survive, adjacent at the same position.
	require.Len(t, out.Records, 2)
	assert.Equal(t, out.Records[0].Pos, out.Records[1].Pos)
}

func TestMergeTemplate_OneSidedPositionsPadded(t *testing.T) {
	input := parseFile(t, []string{"S1"},
		"chr10	100	.	A	G	.	.	.	GT:DP	0/1:30",
	)
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr11	50	.	C	T	.	.	.	GT	0/0",
	)

	out, anomalies := MergeTemplate(input, tmpl)
	require.Empty(t, anomalies)
	require.Len(t, out.Records, 2)

	// Input-only record gains a missing template-sample column.
	inRec := out.Records[0]
	require.Len(t, inRec.Samples, 2)
	assert.Equal(t, "0/1:30", inRec.Samples[0].String())
	assert.Equal(t, "./.:.", inRec.Samples[1].String())

	// Template-only record gains a missing input-sample column.
	tmplRec := out.Records[1]
	require.Len(t, tmplRec.Samples, 2)
	assert.True(t, tmplRec.Samples[0].Missing())
	assert.Equal(t, "0/0", tmplRec.Samples[1].String())
}

func TestMergeTemplate_SortedByReferenceOrder(t *testing.T) {
	input := parseFile(t, []string{"S1"},
		"chr10	300	.	A	G	.	.	.	GT	0/1",
	)
	tmpl := parseFile(t, []string{"PharmCAT"},
		"chr2	100	.	C	T	.	.	.	GT	0/0",
		"chr10	100	.	C	T	.	.	.	GT	0/0",
	)

	out, _ := MergeTemplate(input, tmpl)
	require.Len(t, out.Records, 3)
	assert.Equal(t, "chr2", out.Records[0].Chrom)
	assert.Equal(t, 100, out.Records[1].Pos)
	assert.Equal(t, 300, out.Records[2].Pos)
}
