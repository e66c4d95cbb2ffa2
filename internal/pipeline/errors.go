package pipeline

import "fmt"

// Stage names surfaced in user-facing errors.
const (
	StageRename    = "rename-chromosomes"
	StageMerge     = "merge-template"
	StageNormalize = "normalize"
	StageSplit     = "split-samples"
	StageMissing   = "report-missing"
	StageReference = "fetch-reference"
)

// StageError names the pipeline stage a failure occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// InvalidFileSuffixError indicates an input path that does not follow the
// *.vcf.gz naming convention.
type InvalidFileSuffixError struct {
	Path string
}

func (e *InvalidFileSuffixError) Error() string {
	return fmt.Sprintf("input %s does not end in .vcf.gz", e.Path)
}

// UnmappedContigError indicates a contig with no entry in the chromosome
// map while strict renaming is requested.
type UnmappedContigError struct {
	Contig string
}

func (e *UnmappedContigError) Error() string {
	return fmt.Sprintf("contig %s has no chromosome mapping", e.Contig)
}

// ReferenceMismatchError indicates a record whose REF disagrees with the
// reference sequence. Collected as an anomaly unless strict mode is on.
type ReferenceMismatchError struct {
	Chrom  string
	Pos    int
	Ref    string
	Actual string
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("%s:%d REF %s disagrees with reference sequence %s", e.Chrom, e.Pos, e.Ref, e.Actual)
}

// IrreconcilableAlleleError indicates conflicting REF alleles at a shared
// position that cannot be merged. Both records are retained.
type IrreconcilableAlleleError struct {
	Chrom       string
	Pos         int
	InputRef    string
	TemplateRef string
}

func (e *IrreconcilableAlleleError) Error() string {
	return fmt.Sprintf("%s:%d input REF %s conflicts with template REF %s", e.Chrom, e.Pos, e.InputRef, e.TemplateRef)
}

// SampleNameCollisionError indicates two distinct sample identifiers whose
// sanitized output names coincide. Fatal before any file is written.
type SampleNameCollisionError struct {
	SampleA string
	SampleB string
	Name    string
}

func (e *SampleNameCollisionError) Error() string {
	return fmt.Sprintf("samples %q and %q both map to output name %q", e.SampleA, e.SampleB, e.Name)
}

// MissingSampleError indicates a requested sample absent from the
// multi-sample file.
type MissingSampleError struct {
	Sample string
}

func (e *MissingSampleError) Error() string {
	return fmt.Sprintf("sample %q not present in input", e.Sample)
}

// ReferenceFetchError indicates the reference sequence could not be made
// available. The pipeline cannot start normalization.
type ReferenceFetchError struct {
	Err error
}

func (e *ReferenceFetchError) Error() string { return fmt.Sprintf("reference unavailable: %v", e.Err) }
func (e *ReferenceFetchError) Unwrap() error { return e.Err }
