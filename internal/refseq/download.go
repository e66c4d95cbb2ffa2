package refseq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// GRCh38 no-alt analysis set, the assembly the template positions are
// anchored to.
const (
	grch38FastaURL = "https://ftp.ncbi.nlm.nih.gov/genomes/all/GCA/000/001/405/GCA_000001405.15_GRCh38/seqs_for_alignment_pipelines.ucsc_ids/GCA_000001405.15_GRCh38_no_alt_analysis_set.fna.gz"
	grch38FaiURL   = "https://ftp.ncbi.nlm.nih.gov/genomes/all/GCA/000/001/405/GCA_000001405.15_GRCh38/seqs_for_alignment_pipelines.ucsc_ids/GCA_000001405.15_GRCh38_no_alt_analysis_set.fna.fai"

	grch38FastaName = "GCA_000001405.15_GRCh38_no_alt_analysis_set.fna"
)

// EnsureLocal makes the GRCh38 reference FASTA and its .fai index
// available under dir, downloading and decompressing them when absent.
// It returns the path to the FASTA.
func EnsureLocal(ctx context.Context, dir string, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reference dir: %w", err)
	}

	fastaPath := filepath.Join(dir, grch38FastaName)
	faiPath := fastaPath + ".fai"

	if fileExists(fastaPath) && fileExists(faiPath) {
		log.Info("reference already cached", zap.String("path", fastaPath))
		return fastaPath, nil
	}

	log.Info("downloading GRCh38 reference sequence", zap.String("dir", dir))
	if err := downloadGunzip(ctx, grch38FastaURL, fastaPath, log); err != nil {
		return "", fmt.Errorf("fetch reference fasta: %w", err)
	}
	if err := download(ctx, grch38FaiURL, faiPath, log); err != nil {
		return "", fmt.Errorf("fetch reference fasta index: %w", err)
	}
	return fastaPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// download fetches url into destPath via a temp file renamed on success.
func download(ctx context.Context, url, destPath string, log *zap.Logger) error {
	return fetch(ctx, url, destPath, log, func(w io.Writer, body io.Reader) error {
		_, err := io.Copy(w, body)
		return err
	})
}

// downloadGunzip fetches a gzip-compressed url and stores it decompressed.
func downloadGunzip(ctx context.Context, url, destPath string, log *zap.Logger) error {
	return fetch(ctx, url, destPath, log, func(w io.Writer, body io.Reader) error {
		gz, err := pgzip.NewReader(body)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		_, err = io.Copy(w, gz)
		return err
	})
}

func fetch(ctx context.Context, url, destPath string, log *zap.Logger, copyFn func(io.Writer, io.Reader) error) error {
	if fileExists(destPath) {
		log.Info("already exists, skipping", zap.String("path", destPath))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	// Long timeout: the reference fasta is close to a gigabyte compressed.
	client := &http.Client{Timeout: 4 * time.Hour}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressReader{r: resp.Body, total: resp.ContentLength, log: log, name: filepath.Base(destPath), lastLog: time.Now()}
	copyErr := copyFn(f, pw)
	closeErr := f.Close()

	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	log.Info("downloaded", zap.String("path", destPath), zap.Int64("bytes", pw.read))
	return nil
}

// progressReader logs download progress at a fixed interval.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	name    string
	log     *zap.Logger
	lastLog time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if time.Since(pr.lastLog) > 5*time.Second {
		fields := []zap.Field{zap.String("file", pr.name), zap.Int64("bytes", pr.read)}
		if pr.total > 0 {
			fields = append(fields, zap.Float64("pct", float64(pr.read)/float64(pr.total)*100))
		}
		pr.log.Info("downloading", fields...)
		pr.lastLog = time.Now()
	}
	return n, err
}
