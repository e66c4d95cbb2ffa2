// Package pipeline implements the variant normalization and reconciliation
// pipeline: chromosome renaming, template-driven representation merging,
// reference-anchored normalization, per-sample extraction, and
// missing-position reporting.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pgxtools/pgxprep/internal/refseq"
	"github.com/pgxtools/pgxprep/internal/tabindex"
	"github.com/pgxtools/pgxprep/internal/vcf"
)

// Config holds the inputs and knobs of one pipeline run.
type Config struct {
	InputVCF     string // block-compressed input, must end in .vcf.gz
	RenameChrs   string // chromosome map file
	TemplateVCF  string // template of pharmacogenomic positions
	RefSeqPath   string // reference fasta; downloaded into CacheDir when empty
	CacheDir     string // where a downloaded reference lives
	OutputDir    string
	OutputPrefix string

	TemplateSample    string   // synthetic sample name excluded from outputs
	Samples           []string // optional subset of samples to extract
	Strict            bool
	Concurrency       int
	KeepIntermediates bool
}

// Run executes the five pipeline stages over exclusively owned
// intermediate artifacts.
type Run struct {
	cfg       Config
	log       *zap.Logger
	tmp       []string // intermediates released on teardown
	anomalies []error
}

// New creates a pipeline run. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Run {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "pharmcat_ready_vcf"
	}
	if cfg.TemplateSample == "" {
		cfg.TemplateSample = "PharmCAT"
	}
	return &Run{cfg: cfg, log: log}
}

// Anomalies returns the recoverable per-record anomalies collected during
// the run (reference mismatches, irreconcilable alleles).
func (r *Run) Anomalies() []error { return r.anomalies }

// Execute runs the pipeline to completion. Fatal errors abort immediately
// and are wrapped in a StageError naming the failing stage; intermediates
// are released best-effort on both success and abort.
func (r *Run) Execute(ctx context.Context) error {
	defer r.cleanup()

	prefix, err := FilePrefix(r.cfg.InputVCF)
	if err != nil {
		return &StageError{Stage: StageRename, Err: err}
	}

	ref, err := r.openReference(ctx)
	if err != nil {
		return &StageError{Stage: StageReference, Err: &ReferenceFetchError{Err: err}}
	}
	defer ref.Close()

	input, err := vcf.ReadFile(r.cfg.InputVCF)
	if err != nil {
		return &StageError{Stage: StageRename, Err: err}
	}
	chrMap, err := LoadChromosomeMap(r.cfg.RenameChrs)
	if err != nil {
		return &StageError{Stage: StageRename, Err: err}
	}

	// Stage 1: chromosome renaming.
	renamed, err := RenameChromosomes(input, chrMap, r.cfg.Strict)
	if err != nil {
		return &StageError{Stage: StageRename, Err: err}
	}
	renamedPath := r.intermediate(prefix + ".chr_renamed.vcf.gz")
	if err := r.writeIndexed(StageRename, renamedPath, renamed); err != nil {
		return err
	}
	r.log.Info("renamed chromosomes", zap.String("artifact", renamedPath))

	// Stage 2: template merge.
	tmpl, err := vcf.ReadFile(r.cfg.TemplateVCF)
	if err != nil {
		return &StageError{Stage: StageMerge, Err: err}
	}
	merged, mergeAnomalies := MergeTemplate(renamed, tmpl)
	r.collect(StageMerge, mergeAnomalies)
	mergedPath := r.intermediate(prefix + ".chr_renamed.pgx_merged.vcf.gz")
	if err := r.writeIndexed(StageMerge, mergedPath, merged); err != nil {
		return err
	}
	r.log.Info("merged template representation",
		zap.String("artifact", mergedPath),
		zap.Int("conflicts", len(mergeAnomalies)))

	// Stage 3: normalization.
	normalized, stats, normAnomalies, err := Normalize(merged, ref, r.cfg.Strict)
	if err != nil {
		return &StageError{Stage: StageNormalize, Err: err}
	}
	r.collect(StageNormalize, normAnomalies)
	normalizedPath := r.intermediate(prefix + ".chr_renamed.pgx_merged.normalized.vcf.gz")
	if err := r.writeIndexed(StageNormalize, normalizedPath, normalized); err != nil {
		return err
	}
	r.log.Info("normalized",
		zap.String("artifact", normalizedPath),
		zap.Int("left_aligned", stats.LeftAligned),
		zap.Int("joined", stats.Joined),
		zap.Int("ref_mismatches", stats.Mismatches))

	// Stages 4 and 5 both consume the immutable normalized artifact and
	// are independent terminal branches.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		paths, err := SplitSamples(gctx, normalized, SplitOptions{
			OutputDir:      r.cfg.OutputDir,
			Prefix:         r.cfg.OutputPrefix,
			TemplateSample: r.cfg.TemplateSample,
			Samples:        r.cfg.Samples,
			Concurrency:    r.cfg.Concurrency,
			Logger:         r.log,
		})
		if err != nil {
			return &StageError{Stage: StageSplit, Err: err}
		}
		r.log.Info("split samples", zap.Int("files", len(paths)))
		return nil
	})

	g.Go(func() error {
		q, err := tabindex.OpenQuery(normalizedPath)
		if err != nil {
			return &StageError{Stage: StageMissing, Err: err}
		}
		defer q.Close()

		missing, err := ReportMissing(tmpl, q, len(input.Samples))
		if err != nil {
			return &StageError{Stage: StageMissing, Err: err}
		}
		reportPath := filepath.Join(r.cfg.OutputDir, r.cfg.OutputPrefix+".missing_pgx_var.vcf.gz")
		if err := vcf.WriteFile(reportPath, missing); err != nil {
			return &StageError{Stage: StageMissing, Err: err}
		}
		r.log.Info("reported missing positions",
			zap.String("artifact", reportPath),
			zap.Int("missing", len(missing.Records)))
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	r.log.Info("pipeline complete", zap.Int("anomalies", len(r.anomalies)))
	return nil
}

// openReference opens the configured reference fasta, downloading the
// GRCh38 analysis set into the cache dir when no path was given.
func (r *Run) openReference(ctx context.Context) (*refseq.Provider, error) {
	path := r.cfg.RefSeqPath
	if path == "" {
		dir := r.cfg.CacheDir
		if dir == "" {
			dir = "."
		}
		var err error
		path, err = refseq.EnsureLocal(ctx, dir, r.log)
		if err != nil {
			return nil, err
		}
	}
	return refseq.Open(path)
}

// writeIndexed materializes an artifact and builds its positional index.
// The index is only ever built over a fully written file.
func (r *Run) writeIndexed(stage, path string, f *vcf.File) error {
	if err := vcf.WriteFile(path, f); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := tabindex.Build(path); err != nil {
		return &StageError{Stage: stage, Err: fmt.Errorf("index: %w", err)}
	}
	return nil
}

// intermediate registers a scoped intermediate artifact path.
func (r *Run) intermediate(name string) string {
	path := filepath.Join(r.cfg.OutputDir, name)
	r.tmp = append(r.tmp, path)
	return path
}

// collect records stage-local anomalies and logs each one.
func (r *Run) collect(stage string, errs []error) {
	for _, e := range errs {
		r.log.Warn("anomaly", zap.String("stage", stage), zap.Error(e))
	}
	r.anomalies = append(r.anomalies, errs...)
}

// cleanup releases intermediate artifacts and their indexes, best-effort.
func (r *Run) cleanup() {
	if r.cfg.KeepIntermediates {
		return
	}
	for _, path := range r.tmp {
		for _, p := range []string{path, path + ".tbi"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				r.log.Warn("could not remove intermediate", zap.String("path", p), zap.Error(err))
			}
		}
	}
	r.tmp = nil
}
