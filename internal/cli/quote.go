package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/erp/bulkship/internal/application/bulk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNoInput = errors.New("--file is required")

func (f CommandFactory) CreateQuoteCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "quote",
		Short: "Quote every record of a batch file",
		Long: `Parse every record of the batch file, resolve its warehouse and customs
declaration and request carrier quotes. With --purchase the selected rate of
every quote is bought; with --dry-run nothing is sent to the carrier API.`,
		Example: `  bulkship quote --file orders.tsv
  bulkship quote --file orders.tsv --dry-run
  cat orders.txt | bulkship quote --file - --purchase`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, flgs.File)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := f.CreateRuntime(ctx, flgs, !flgs.DryRun)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Service.CreateBatch(ctx, input, bulk.BatchOptions{
				DryRun:       flgs.DryRun,
				AutoPurchase: flgs.Purchase,
				OnProgress: func(p bulk.Progress) {
					rt.Logger.Info("Batch progress",
						zap.String("batch_id", p.BatchID),
						zap.Int("done", p.Done),
						zap.Int("total", p.Total),
						zap.Int("failed", p.Failed),
					)
				},
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	addQuoteFlags(c.Flags(), flgs)
	c.MarkFlagsMutuallyExclusive(flagMap.DryRun.Name, flagMap.Purchase.Name)
	return c
}

// readInput reads path, or the command input when path is "-"
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return "", errNoInput
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
