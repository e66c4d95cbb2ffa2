package vcf

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=chr10>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	NA12878	NA12156
chr10	96541616	rs4917639	A	C	.	PASS	AC=2;AN=4	GT	0/1	1|1
chr10	96702047	.	C	T,G	.	PASS	.	GT:DP	./.:10	0/2:7
`

func writeTestVCF(t *testing.T, name, content string, compress bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if compress {
		gz := gzip.NewWriter(f)
		if _, err := gz.Write([]byte(content)); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("close fixture: %v", err)
		}
		return path
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReader_PlainAndGzip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "test.vcf"
		if compress {
			name = "test.vcf.gz"
		}
		path := writeTestVCF(t, name, testVCF, compress)

		r, err := Open(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer r.Close()

		if got := r.SampleNames(); len(got) != 2 || got[0] != "NA12878" || got[1] != "NA12156" {
			t.Errorf("samples = %v, want [NA12878 NA12156]", got)
		}
		if len(r.Header()) != 2 {
			t.Errorf("header lines = %d, want 2", len(r.Header()))
		}

		rec, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if rec.Chrom != "chr10" || rec.Pos != 96541616 {
			t.Errorf("locus = %s:%d", rec.Chrom, rec.Pos)
		}
		if rec.Ref != "A" || len(rec.Alt) != 1 || rec.Alt[0] != "C" {
			t.Errorf("alleles = %s>%v", rec.Ref, rec.Alt)
		}
		if rec.ID != "rs4917639" || rec.Info != "AC=2;AN=4" {
			t.Errorf("passthrough columns changed: %q %q", rec.ID, rec.Info)
		}
		if got := rec.Samples[1].Alleles(); len(got) != 2 || got[0] != 1 || got[1] != 1 {
			t.Errorf("second sample GT = %v, want [1 1]", got)
		}
		if !rec.Samples[1].Phased() {
			t.Error("second sample should be phased")
		}

		rec, err = r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(rec.Alt) != 2 || rec.Alt[1] != "G" {
			t.Errorf("alt = %v, want [T G]", rec.Alt)
		}
		if !rec.Samples[0].Missing() {
			t.Error("./. sample should be missing")
		}
		if rec.Samples[1].Missing() {
			t.Error("0/2 sample should not be missing")
		}

		rec, err = r.Next()
		if err != nil {
			t.Fatalf("next at eof: %v", err)
		}
		if rec != nil {
			t.Errorf("expected end of records, got %v", rec)
		}
	}
}

func TestReader_MissingChromLine(t *testing.T) {
	path := writeTestVCF(t, "bad.vcf", "##fileformat=VCFv4.2\n", false)
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for header without #CHROM")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

func TestReader_ColumnCountMismatch(t *testing.T) {
	content := strings.Replace(testVCF, "\t0/1\t1|1", "\t0/1", 1)
	path := writeTestVCF(t, "short.vcf", content, false)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err == nil {
		t.Fatal("expected error for short sample row")
	}
}

func TestRecord_StringRoundTrip(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(testVCF), "\n")
	for _, line := range lines[3:] {
		rec, perr := ParseRecord(line, 2)
		if perr != nil {
			t.Fatalf("parse %q: %v", line, perr)
		}
		if got := rec.String(); got != line {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", got, line)
		}
	}
}

func TestReadFile(t *testing.T) {
	path := writeTestVCF(t, "test.vcf.gz", testVCF, true)
	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(f.Records) != 2 || len(f.Samples) != 2 {
		t.Errorf("records=%d samples=%d", len(f.Records), len(f.Samples))
	}
	if f.SampleIndex("NA12156") != 1 || f.SampleIndex("nope") != -1 {
		t.Error("SampleIndex lookup broken")
	}
}
