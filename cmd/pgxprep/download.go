package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgxtools/pgxprep/internal/refseq"
)

func newDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the GRCh38 reference sequence and its index",
		Long: `Download the GRCh38 no-alt analysis-set fasta and its .fai index
from the NIH genomes site into the cache directory, decompressing on the
fly. Files already present are skipped. The run command does this on
demand; download lets you prefetch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			dir := outputDir
			if dir == "" {
				dir = viper.GetString("cache_dir")
			}
			_, err = refseq.EnsureLocal(cmd.Context(), dir, log)
			return err
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "download directory (default: cache_dir)")
	return cmd
}
