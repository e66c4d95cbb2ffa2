package refseq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIndexedFasta writes a small FASTA with a hand-built .fai companion.
func writeIndexedFasta(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")

	fasta := ">chr1\n" +
		"ACGTACGTAC\n" +
		"gggg\n" +
		">chrM\n" +
		"TTTT\n"
	require.NoError(t, os.WriteFile(path, []byte(fasta), 0o644))

	// name, length, offset of first base, bases per line, bytes per line
	fai := "chr1\t14\t6\t10\t11\n" +
		"chrM\t4\t28\t4\t5\n"
	require.NoError(t, os.WriteFile(path+".fai", []byte(fai), 0o644))
	return path
}

func TestProvider(t *testing.T) {
	p, err := Open(writeIndexedFasta(t))
	require.NoError(t, err)
	defer p.Close()

	b, err := p.Base("chr1", 1)
	require.NoError(t, err)
	assert.Equal(t, byte('A'), b)

	b, err = p.Base("chr1", 14)
	require.NoError(t, err)
	assert.Equal(t, byte('G'), b, "soft-masked bases come back uppercased")

	s, err := p.Range("chr1", 9, 12)
	require.NoError(t, err)
	assert.Equal(t, "ACGG", s, "range spanning a line break")

	s, err = p.Range("chrM", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, "TTTT", s)

	assert.True(t, p.HasContig("chrM"))
	assert.False(t, p.HasContig("chr2"))
}

func TestProviderErrors(t *testing.T) {
	p, err := Open(writeIndexedFasta(t))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Range("chr1", 0, 3)
	assert.Error(t, err, "coordinates are 1-based")

	_, err = p.Range("chr1", 5, 4)
	assert.Error(t, err)

	_, err = p.Range("chr1", 12, 40)
	assert.Error(t, err, "interval beyond contig end")

	_, err = p.Range("chr9", 1, 2)
	assert.Error(t, err, "unknown contig")
}
