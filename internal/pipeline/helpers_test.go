package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// parseFile builds an in-memory VCF from data lines for the given samples.
func parseFile(t *testing.T, samples []string, lines ...string) *vcf.File {
	t.Helper()
	f := &vcf.File{
		Header:  []string{"##fileformat=VCFv4.2"},
		Samples: samples,
	}
	for _, line := range lines {
		rec, perr := vcf.ParseRecord(line, len(samples))
		require.Nil(t, perr, "parse %q", line)
		f.Records = append(f.Records, rec)
	}
	return f
}

// fakeRef is an in-memory reference sequence; each contig's string is
// addressed 1-based.
type fakeRef map[string]string

func (f fakeRef) Base(contig string, pos int) (byte, error) {
	s, err := f.Range(contig, pos, pos)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (f fakeRef) Range(contig string, start, end int) (string, error) {
	seq, ok := f[contig]
	if !ok {
		return "", fmt.Errorf("no contig %s", contig)
	}
	if start < 1 || end > len(seq) || end < start {
		return "", fmt.Errorf("out of range %s:%d-%d", contig, start, end)
	}
	return strings.ToUpper(seq[start-1 : end]), nil
}

func (f fakeRef) HasContig(contig string) bool {
	_, ok := f[contig]
	return ok
}

// lines renders every record of f for order-sensitive comparisons.
func lines(f *vcf.File) []string {
	out := make([]string, len(f.Records))
	for i, rec := range f.Records {
		out[i] = rec.String()
	}
	return out
}
