package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/lightrelay/lightrelay/config"
	"github.com/lightrelay/lightrelay/libs/log"
)

var (
	config = cfg.DefaultConfig()
	logger = log.MustNewDefaultLogger(cfg.LogFormatPlain, cfg.DefaultLogLevel)
)

func init() {
	registerFlagsRootCmd(RootCmd)
}

func registerFlagsRootCmd(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-level", config.LogLevel, "log level")
	cmd.PersistentFlags().String("log-format", config.LogFormat, "log format: plain | json")
}

// ParseConfig retrieves the default environment configuration, sets up the
// light relay root and ensures that the root exists.
func ParseConfig(conf *cfg.Config) (*cfg.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}
	conf.SetRoot(conf.RootDir)
	if err := cfg.EnsureRoot(conf.RootDir); err != nil {
		return nil, err
	}
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCmd is the root command for the light relay.
var RootCmd = &cobra.Command{
	Use:   "lightrelay",
	Short: "Checkpoint light client relaying committee rotations to a target chain",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Name() == VersionCmd.Name() {
			return nil
		}

		config, err = ParseConfig(config)
		if err != nil {
			return err
		}
		logger, err = log.NewDefaultLogger(config.LogFormat, config.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.With("module", "main")
		return nil
	},
}
