package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightrelay/lightrelay/light/provider/objstore"
	"github.com/lightrelay/lightrelay/version"
)

var verbose bool

// VersionCmd prints the version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		if verbose {
			values, _ := json.MarshalIndent(struct {
				LightRelay string `json:"lightrelay"`
				Commit     string `json:"commit,omitempty"`
				Envelope   uint8  `json:"checkpoint_envelope"`
			}{
				LightRelay: version.Version,
				Commit:     version.GitCommit,
				Envelope:   objstore.BlobVersion,
			}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(values))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		}
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the checkpoint envelope version too")
}
