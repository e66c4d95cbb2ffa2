package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgxtools/pgxprep/internal/vcf"
)

func newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples <vcf>",
		Short: "List the sample names of a VCF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := vcf.ReadSampleNames(args[0])
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
