package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaos-io/silhouette/sequence"
)

func newReverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <input.json> [output.json]",
		Short: "Reverse the asanas of a yoga sequence file",
		Example: `  silhouette reverse my_flow.json
  silhouette reverse my_flow.json my_flow_backwards.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			var output string
			if len(args) > 1 {
				output = args[1]
			}
			written, err := sequence.Reverse(args[0], output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reversed file:", written)
			return nil
		},
	}
}
