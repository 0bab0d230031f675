package cli

import (
	"github.com/spf13/cobra"
)

func (f CommandFactory) CreatePurchaseCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "purchase",
		Short: "Buy labels for chosen rates of existing quotes",
		Long: `Buy the label for rate-ids[i] on quote-ids[i] for every i. Both lists
must have the same length. A quote is bought at most once.`,
		Example: `  bulkship purchase --quote-ids shp_1,shp_2 --rate-ids rate_a,rate_b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := f.CreateRuntime(ctx, flgs, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Service.PurchaseBatch(ctx, flgs.QuoteIDs, flgs.RateIDs)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	addPurchaseFlags(c.Flags(), flgs)
	_ = c.MarkFlagRequired(flagMap.QuoteIDs.Name)
	_ = c.MarkFlagRequired(flagMap.RateIDs.Name)
	return c
}
