package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.Source)
	assert.NotNil(cfg.Fetch)
	assert.NotNil(cfg.Bridge)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	cfg.Genesis = "bar"
	cfg.DBPath = "/opt/data"

	assert.Equal("/foo/bar", cfg.GenesisFile())
	assert.Equal("/opt/data", cfg.DBDir())
	assert.Equal(filepath.Join("/foo", "data", "checkpoints"), cfg.CheckpointsDir())
	assert.Equal(filepath.Join("/foo", "data", "relay"), cfg.Bridge.SubmitterDirPath())
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with fetch
	cfg.Fetch.Multiplier = 0.5
	assert.Error(t, cfg.ValidateBasic())
}

func TestDefaultFetchConfigIsConstantBackoff(t *testing.T) {
	cfg := DefaultFetchConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 1.0, cfg.Multiplier)
	assert.Equal(t, time.Minute, cfg.MaxElapsedTime)
}

func TestBaseConfigValidateBasic(t *testing.T) {
	cfg := TestBaseConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.LogFormat = "invalid"
	assert.Error(t, cfg.ValidateBasic())

	cfg = TestBaseConfig()
	cfg.StoreBackend = "sqlite"
	assert.Error(t, cfg.ValidateBasic())
}

func TestSourceConfigValidateBasic(t *testing.T) {
	testCases := map[string]func(*SourceConfig){
		"empty rpc":        func(c *SourceConfig) { c.RPCAddress = "" },
		"empty graphql":    func(c *SourceConfig) { c.GraphQLAddress = "" },
		"bad object store": func(c *SourceConfig) { c.ObjectStoreURL = "://nope" },
		"zero timeout":     func(c *SourceConfig) { c.RequestTimeout = 0 },
	}
	for name, mutate := range testCases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := DefaultSourceConfig()
			mutate(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestFetchConfigValidateBasic(t *testing.T) {
	testCases := map[string]func(*FetchConfig){
		"zero interval":     func(c *FetchConfig) { c.InitialInterval = 0 },
		"shrinking backoff": func(c *FetchConfig) { c.Multiplier = 0.9 },
		"max below initial": func(c *FetchConfig) { c.MaxInterval = time.Millisecond },
		"no elapsed budget": func(c *FetchConfig) { c.MaxElapsedTime = 0 },
	}
	for name, mutate := range testCases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := DefaultFetchConfig()
			mutate(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestBridgeConfigValidateBasic(t *testing.T) {
	cfg := DefaultBridgeConfig()
	// disabled bridges are not checked
	require.NoError(t, cfg.ValidateBasic())

	cfg.Enabled = true
	require.Error(t, cfg.ValidateBasic())

	cfg.PackageID = "0x1"
	cfg.RegistryID = "0x2"
	require.NoError(t, cfg.ValidateBasic())

	cfg.Submitter = SubmitterJSONRPC
	require.Error(t, cfg.ValidateBasic())
	cfg.SubmitterAddress = "http://localhost:9000"
	require.NoError(t, cfg.ValidateBasic())

	cfg.Submitter = "carrier-pigeon"
	require.Error(t, cfg.ValidateBasic())
}
