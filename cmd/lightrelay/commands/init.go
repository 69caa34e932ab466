package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfg "github.com/lightrelay/lightrelay/config"
	tmos "github.com/lightrelay/lightrelay/libs/os"
	"github.com/lightrelay/lightrelay/light"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/node"
	"github.com/lightrelay/lightrelay/types"
)

var (
	genesisSource string
	seedList      []uint
	bootstrap     bool
)

// InitFilesCmd initializes a fresh light relay home directory.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the light relay home directory",
	Long: `Write the default config file, install the genesis committee and seed
the checkpoint list.

The list is seeded with --checkpoints, else with the checkpoints recorded in
the genesis file, else (with --bootstrap) with the last checkpoint of the
first epoch as reported by the source chain.`,
	RunE: initFiles,
}

func init() {
	InitFilesCmd.Flags().StringVar(&genesisSource, "genesis", "",
		"genesis file to install, if none is present yet")
	InitFilesCmd.Flags().UintSliceVar(&seedList, "checkpoints", nil,
		"end-of-epoch checkpoints to seed the list with, comma-separated")
	InitFilesCmd.Flags().BoolVar(&bootstrap, "bootstrap", false,
		"ask the source chain for the first checkpoint if none is given")
}

func initFiles(cmd *cobra.Command, args []string) error {
	return initFilesWithConfig(cmd.Context(), config)
}

func initFilesWithConfig(ctx context.Context, config *cfg.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configFile := cfg.ConfigFile(config.RootDir)
	if tmos.FileExists(configFile) {
		logger.Info("Found config file", "path", configFile)
	} else {
		if err := cfg.WriteConfigFile(config.RootDir, config); err != nil {
			return err
		}
		logger.Info("Generated config file", "path", configFile)
	}

	genFile := config.GenesisFile()
	if tmos.FileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
	} else {
		if genesisSource == "" {
			return errors.New("no genesis file: pass one with --genesis")
		}
		bz, err := os.ReadFile(genesisSource)
		if err != nil {
			return err
		}
		doc, err := types.GenesisDocFromJSON(bz)
		if err != nil {
			return fmt.Errorf("invalid genesis file %s: %w", genesisSource, err)
		}
		if err := doc.SaveAs(genFile); err != nil {
			return err
		}
		logger.Info("Installed genesis file", "path", genFile, "chain_id", doc.ChainID)
	}

	doc, err := types.GenesisDocFromFile(genFile)
	if err != nil {
		return err
	}
	seeds := make([]uint64, 0, len(seedList))
	for _, s := range seedList {
		seeds = append(seeds, uint64(s))
	}
	if len(seeds) == 0 {
		seeds = doc.Checkpoints
	}
	if len(seeds) == 0 && !bootstrap {
		logger.Info("Checkpoint list left empty, run init with --checkpoints or --bootstrap")
		return nil
	}

	st, err := node.OpenStore(config)
	if err != nil {
		return err
	}
	defer st.Close()

	var index provider.EpochIndex
	if bootstrap {
		index = node.NewSourceClient(config, logger)
	}
	list, err := light.Bootstrap(ctx, st, index, seeds)
	if err != nil {
		return err
	}
	logger.Info("Checkpoint list ready", "checkpoints", list)
	return nil
}
