package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightrelay/lightrelay/node"
	"github.com/lightrelay/lightrelay/types"
)

// VerifyTxCmd prints the authenticated effects and events of a transaction.
var VerifyTxCmd = &cobra.Command{
	Use:   "verify-tx [digest]",
	Short: "Print the verified effects and events of a transaction",
	Long: `Locate the checkpoint including the transaction, fetch it in full and check
it against the committee of its epoch. The epoch must have been reached by a
previous sync.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := types.DigestFromHex(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		n, err := node.New(ctx, config, logger, node.DefaultMetricsProvider(config.Instrumentation))
		if err != nil {
			return err
		}
		defer n.Close()

		effects, events, err := n.Client().VerifyTransaction(ctx, tx)
		if err != nil {
			return err
		}
		bz, err := json.MarshalIndent(struct {
			Effects *types.TransactionEffects `json:"effects"`
			Events  *types.TransactionEvents  `json:"events"`
		}{effects, events}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bz))
		return nil
	},
}
