package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

// SplitOptions configures SplitSamples.
type SplitOptions struct {
	OutputDir      string
	Prefix         string
	TemplateSample string   // synthetic sample excluded from the output set
	Samples        []string // optional subset; all real samples when empty
	Concurrency    int      // worker limit; NumCPU when <= 0
	Logger         *zap.Logger
}

// SplitSamples writes one single-sample VCF per real sample of f, skipping
// records where that sample's genotype is fully missing. Output naming is
// <prefix>.<sample>.vcf.gz under OutputDir. All collisions between
// sanitized sample names are detected before any file is written.
// Returns the written paths in sample order.
func SplitSamples(ctx context.Context, f *vcf.File, opts SplitOptions) ([]string, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	samples, err := selectSamples(f, opts)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(samples)) // sanitized -> sample id
	paths := make([]string, len(samples))
	for i, s := range samples {
		clean := sanitizeSampleName(s)
		if prev, ok := names[clean]; ok {
			return nil, &SampleNameCollisionError{SampleA: prev, SampleB: s, Name: clean}
		}
		names[clean] = s
		paths[i] = filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s.vcf.gz", opts.Prefix, clean))
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sample := range samples {
		col := f.SampleIndex(sample)
		path := paths[i]
		sample := sample
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := writeSampleFile(path, f, sample, col)
			if err != nil {
				return fmt.Errorf("sample %s: %w", sample, err)
			}
			log.Info("wrote single-sample vcf",
				zap.String("sample", sample),
				zap.String("path", path),
				zap.Int("records", n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// selectSamples resolves the output sample set: the requested subset, or
// every sample minus the synthetic template sample.
func selectSamples(f *vcf.File, opts SplitOptions) ([]string, error) {
	if len(opts.Samples) > 0 {
		for _, s := range opts.Samples {
			if f.SampleIndex(s) < 0 {
				return nil, &MissingSampleError{Sample: s}
			}
		}
		return append([]string(nil), opts.Samples...), nil
	}

	var out []string
	for _, s := range f.Samples {
		if s == opts.TemplateSample {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// writeSampleFile writes sample's single-sample VCF, excluding records
// where its genotype is fully missing. Returns the record count.
func writeSampleFile(path string, f *vcf.File, sample string, col int) (int, error) {
	w, err := vcf.Create(path)
	if err != nil {
		return 0, err
	}
	if err := w.WriteHeader(f.Header, []string{sample}); err != nil {
		w.Close()
		return 0, err
	}

	n := 0
	for _, rec := range f.Records {
		if col >= len(rec.Samples) || rec.Samples[col].Missing() {
			continue
		}
		single := rec.Clone()
		single.Samples = []vcf.Genotype{rec.Samples[col]}
		if err := w.WriteRecord(single); err != nil {
			w.Close()
			return n, err
		}
		n++
	}
	return n, w.Close()
}

// sanitizeSampleName maps a sample identifier to a filesystem-safe name.
func sanitizeSampleName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
