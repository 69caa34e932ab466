package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	tmos "github.com/lightrelay/lightrelay/libs/os"
	"github.com/lightrelay/lightrelay/node"
)

var syncInterval time.Duration

// SyncCmd verifies the chain up to its head and relays new committees.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Verify end-of-epoch checkpoints up to the chain head and relay new committees",
	Long: `Bring the checkpoint list up to the source chain head, verify every new
end-of-epoch checkpoint and, with the bridge enabled, relay the committees the
target chain does not know yet.

With --interval the sync is repeated until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		n, err := node.New(ctx, config, logger, node.DefaultMetricsProvider(config.Instrumentation))
		if err != nil {
			return err
		}

		stopped := make(chan struct{})
		// Stop upon receiving SIGTERM or CTRL-C, once the current
		// checkpoint is done with.
		tmos.TrapSignal(logger, func() {
			cancel()
			<-stopped
		})

		err = n.Run(ctx, syncInterval)
		if cerr := n.Close(); err == nil {
			err = cerr
		}
		close(stopped)
		return err
	},
}

func init() {
	SyncCmd.Flags().DurationVar(&syncInterval, "interval", 0,
		"sync again after this long, until interrupted (0 syncs once)")
}
