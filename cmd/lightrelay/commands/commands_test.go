package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/lightrelay/lightrelay/config"
	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/node"
	"github.com/lightrelay/lightrelay/types"
)

func TestInitAndShowCommittee(t *testing.T) {
	logger = log.TestingLogger()
	root := t.TempDir()
	conf := cfg.TestConfig().SetRoot(root)
	conf.StoreBackend = cfg.StoreBackendFiles
	require.NoError(t, cfg.EnsureRoot(root))

	committee, _ := types.RandCommittee(types.FirstVerificationEpoch, 4, 10)
	doc := types.GenesisDoc{ChainID: "test-chain", Checkpoints: []uint64{9}}
	for _, m := range committee.Members {
		doc.Validators = append(doc.Validators, types.GenesisValidator{Name: m.Name, Stake: m.Stake})
	}
	genesisSource = filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, doc.SaveAs(genesisSource))
	defer func() { genesisSource = "" }()

	require.NoError(t, initFilesWithConfig(context.Background(), conf))
	assert.FileExists(t, cfg.ConfigFile(root))
	assert.FileExists(t, conf.GenesisFile())

	st, err := node.OpenStore(conf)
	require.NoError(t, err)
	list, err := st.CheckpointList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, list)
	require.NoError(t, st.Close())

	// a second init leaves everything in place
	genesisSource = ""
	require.NoError(t, initFilesWithConfig(context.Background(), conf))

	config = conf
	defer func() { config = cfg.DefaultConfig() }()
	var out bytes.Buffer
	ShowCommitteeCmd.SetOut(&out)
	require.NoError(t, ShowCommitteeCmd.RunE(ShowCommitteeCmd, nil))

	var shown struct {
		Epoch      uint64 `json:"epoch"`
		TotalStake uint64 `json:"total_stake"`
		Members    []json.RawMessage
		Verified   int `json:"checkpoints_verified"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.EqualValues(t, types.FirstVerificationEpoch, shown.Epoch)
	assert.EqualValues(t, 40, shown.TotalStake)
	assert.Len(t, shown.Members, 4)
	assert.Zero(t, shown.Verified)
}

func TestInitRequiresGenesis(t *testing.T) {
	logger = log.TestingLogger()
	conf := cfg.TestConfig().SetRoot(t.TempDir())
	require.NoError(t, cfg.EnsureRoot(conf.RootDir))
	assert.Error(t, initFilesWithConfig(context.Background(), conf))
}
