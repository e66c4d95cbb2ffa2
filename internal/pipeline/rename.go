package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// ChromosomeMap maps source contig names to canonical contig names.
// Contigs without an entry pass through unchanged unless strict renaming
// is requested.
type ChromosomeMap map[string]string

// LoadChromosomeMap parses a two-column whitespace-separated map file,
// the same format bcftools annotate --rename-chrs accepts. Blank lines
// and '#' comments are skipped.
func LoadChromosomeMap(path string) (ChromosomeMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chromosome map: %w", err)
	}
	defer f.Close()

	m := make(ChromosomeMap)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("chromosome map %s line %d: expected 2 columns, found %d", path, lineNo, len(fields))
		}
		m[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chromosome map: %w", err)
	}
	return m, nil
}

// RenameChromosomes rewrites every record's contig name through the map.
// Record order is preserved. In strict mode an unmapped contig is fatal.
func RenameChromosomes(f *vcf.File, m ChromosomeMap, strict bool) (*vcf.File, error) {
	out := f.Clone()
	for _, rec := range out.Records {
		target, ok := m[rec.Chrom]
		if !ok {
			if strict {
				return nil, &UnmappedContigError{Contig: rec.Chrom}
			}
			continue
		}
		rec.Chrom = target
	}
	out.Header = renameContigHeader(out.Header, m)
	return out, nil
}

// renameContigHeader rewrites ##contig=<ID=...> header lines through the map
// so the header block stays consistent with the data lines.
func renameContigHeader(header []string, m ChromosomeMap) []string {
	out := make([]string, len(header))
	for i, line := range header {
		if !strings.HasPrefix(line, "##contig=<ID=") {
			out[i] = line
			continue
		}
		rest := line[len("##contig=<ID="):]
		end := strings.IndexAny(rest, ",>")
		if end < 0 {
			out[i] = line
			continue
		}
		if target, ok := m[rest[:end]]; ok {
			out[i] = "##contig=<ID=" + target + rest[end:]
		} else {
			out[i] = line
		}
	}
	return out
}

// FilePrefix returns the basename of a *.vcf.gz path with the suffix
// stripped, mirroring the prefix used to name intermediate artifacts.
func FilePrefix(path string) (string, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".vcf.gz") {
		return "", &InvalidFileSuffixError{Path: path}
	}
	return strings.TrimSuffix(base, ".vcf.gz"), nil
}
