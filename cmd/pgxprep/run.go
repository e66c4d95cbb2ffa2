package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgxtools/pgxprep/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var cfg pipeline.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the preprocessing pipeline over an input VCF",
		Example: `  pgxprep run --input sample.vcf.gz --rename-chrs chr_map.txt --ref-pgx-vcf pgx_positions.vcf.gz
  pgxprep run --input cohort.vcf.gz --rename-chrs chr_map.txt --ref-pgx-vcf pgx.vcf.gz \
	--ref-seq GRCh38.fna --output-dir out --output-prefix ready`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.TemplateSample == "" {
				cfg.TemplateSample = viper.GetString("template_sample")
			}
			if cfg.OutputPrefix == "" {
				cfg.OutputPrefix = viper.GetString("output_prefix")
			}
			if cfg.CacheDir == "" {
				cfg.CacheDir = viper.GetString("cache_dir")
			}
			if cfg.Concurrency == 0 {
				cfg.Concurrency = viper.GetInt("concurrency")
			}

			return pipeline.New(cfg, log).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfg.InputVCF, "input", "", "compressed input VCF (*.vcf.gz)")
	cmd.Flags().StringVar(&cfg.RenameChrs, "rename-chrs", "", "chromosome rename map file")
	cmd.Flags().StringVar(&cfg.TemplateVCF, "ref-pgx-vcf", "", "template VCF of pharmacogenomic positions")
	cmd.Flags().StringVar(&cfg.RefSeqPath, "ref-seq", "", "reference genome fasta (downloaded when omitted)")
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", ".", "output directory")
	cmd.Flags().StringVar(&cfg.OutputPrefix, "output-prefix", "", "output file prefix")
	cmd.Flags().StringSliceVar(&cfg.Samples, "sample", nil, "restrict output to the named sample(s)")
	cmd.Flags().StringVar(&cfg.TemplateSample, "template-sample", "", "synthetic template sample name excluded from outputs")
	cmd.Flags().BoolVar(&cfg.Strict, "strict", false, "treat unmapped contigs and reference mismatches as fatal")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 0, "sample-split worker limit (0 = NumCPU)")
	cmd.Flags().BoolVar(&cfg.KeepIntermediates, "keep-intermediates", false, "keep intermediate artifacts")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("rename-chrs")
	cmd.MarkFlagRequired("ref-pgx-vcf")

	return cmd
}
