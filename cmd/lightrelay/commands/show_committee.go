package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightrelay/lightrelay/light"
	"github.com/lightrelay/lightrelay/node"
	"github.com/lightrelay/lightrelay/types"
)

// ShowCommitteeCmd prints the committee trusted after the cached
// checkpoints.
var ShowCommitteeCmd = &cobra.Command{
	Use:   "show-committee",
	Short: "Show the committee currently trusted",
	Long: `Replay the cached end-of-epoch checkpoints from the genesis committee and
print the committee they lead to. No remote call is made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		genesis, err := node.LoadGenesis(config)
		if err != nil {
			return err
		}
		st, err := node.OpenStore(config)
		if err != nil {
			return err
		}
		c, err := light.NewClient(genesis, st, nil, nil, light.Logger(logger))
		if err != nil {
			st.Close()
			return err
		}
		defer c.Close()

		verified, err := c.Restore()
		if err != nil {
			return err
		}
		bz, err := json.MarshalIndent(committeeInfo(c.Committee(), verified), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bz))
		return nil
	},
}

type committeeJSON struct {
	Epoch           uint64            `json:"epoch"`
	Digest          types.Digest      `json:"digest"`
	TotalStake      uint64            `json:"total_stake"`
	QuorumThreshold uint64            `json:"quorum_threshold"`
	Members         []types.Authority `json:"members"`
	Verified        int               `json:"checkpoints_verified"`
}

func committeeInfo(c *types.Committee, verified int) committeeJSON {
	return committeeJSON{
		Epoch:           c.Epoch,
		Digest:          c.Digest(),
		TotalStake:      c.TotalStake(),
		QuorumThreshold: c.QuorumThreshold(),
		Members:         c.Members,
		Verified:        verified,
	}
}
