package main

import (
	"os"
	"path/filepath"

	cmd "github.com/lightrelay/lightrelay/cmd/lightrelay/commands"
	"github.com/lightrelay/lightrelay/config"
	"github.com/lightrelay/lightrelay/libs/cli"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.InitFilesCmd,
		cmd.SyncCmd,
		cmd.VerifyTxCmd,
		cmd.ShowCommitteeCmd,
		cmd.VersionCmd,
	)

	executor := cli.PrepareBaseCmd(rootCmd, "LR", os.ExpandEnv(filepath.Join("$HOME", config.DefaultLightRelayDir)))
	if err := executor.Execute(); err != nil {
		os.Exit(1)
	}
}
