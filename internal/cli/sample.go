package cli

import (
	"fmt"

	"github.com/erp/bulkship/internal/sample"
	"github.com/spf13/cobra"
)

func (f CommandFactory) CreateSampleCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic batch file",
		Long: `Write fake shipment records to stdout in the layout accepted by the
quote command. Use a fixed --seed for a reproducible batch.`,
		Example: `  bulkship sample --count 50 > orders.tsv
  bulkship sample --format freetext --seed 7 | bulkship quote --file - --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := sample.DefaultConfig()
			cfg.Count = flgs.Count
			cfg.Seed = flgs.Seed
			cfg.Format = sample.Format(flgs.Format)
			cfg.InternationalRatio = flgs.InternationalRatio

			gen, err := sample.New(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), gen.Batch())
			return err
		},
	}
	addSampleFlags(c.Flags(), flgs)
	return c
}
