package types

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randGenesisDoc() *GenesisDoc {
	c, _ := RandCommittee(0, 4, 25)
	doc := &GenesisDoc{ChainID: "test-chain", Epoch: 0, Checkpoints: []uint64{100, 200}}
	for _, m := range c.Members {
		doc.Validators = append(doc.Validators, GenesisValidator{Name: m.Name, Stake: m.Stake})
	}
	return doc
}

func TestGenesisBad(t *testing.T) {
	good := randGenesisDoc()

	testCases := []struct {
		name   string
		mutate func(*GenesisDoc)
	}{
		{"missing chain id", func(d *GenesisDoc) { d.ChainID = "" }},
		{"chain id too long", func(d *GenesisDoc) {
			d.ChainID = "a-really-really-long-chain-id-that-exceeds-fifty-characters"
		}},
		{"no validators", func(d *GenesisDoc) { d.Validators = nil }},
		{"zero stake", func(d *GenesisDoc) { d.Validators[0].Stake = 0 }},
		{"invalid key", func(d *GenesisDoc) { d.Validators[0].Name = AuthorityName{} }},
		{"unordered checkpoints", func(d *GenesisDoc) { d.Checkpoints = []uint64{5, 5} }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			bz, err := json.Marshal(good)
			require.NoError(t, err)
			doc := new(GenesisDoc)
			require.NoError(t, json.Unmarshal(bz, doc))
			tc.mutate(doc)

			bz, err = json.Marshal(doc)
			require.NoError(t, err)
			_, err = GenesisDocFromJSON(bz)
			assert.Error(t, err)
		})
	}
}

func TestGenesisGood(t *testing.T) {
	doc := randGenesisDoc()
	file := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, doc.SaveAs(file))

	loaded, err := GenesisDocFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	c, err := loaded.Committee()
	require.NoError(t, err)
	// the recorded epoch is 0 but the committee verifies epoch 1
	assert.EqualValues(t, FirstVerificationEpoch, c.Epoch)
	assert.EqualValues(t, 100, c.TotalStake())

	_, err = GenesisDocFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
