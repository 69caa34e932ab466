package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tmos "github.com/lightrelay/lightrelay/libs/os"
)

const (
	// MaxChainIDLen is a maximum length of the chain ID.
	MaxChainIDLen = 50

	// FirstVerificationEpoch is the epoch the genesis committee is trusted
	// for. The genesis record is numbered 0, but the first certificate that
	// can be verified under the genesis committee is produced in epoch 1.
	FirstVerificationEpoch = 1
)

//------------------------------------------------------------
// core types for a genesis definition

// GenesisValidator is an initial committee member.
type GenesisValidator struct {
	Name  AuthorityName `json:"name"`
	Stake uint64        `json:"stake"`
}

// GenesisDoc defines the bootstrap committee the light client trusts
// unconditionally, plus an optional seed for the checkpoint list.
type GenesisDoc struct {
	ChainID     string             `json:"chain_id"`
	Epoch       uint64             `json:"epoch"`
	Validators  []GenesisValidator `json:"validators"`
	Checkpoints []uint64           `json:"checkpoints,omitempty"`
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := json.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return tmos.WriteFileAtomic(file, genDocBytes, 0644)
}

// ValidateAndComplete checks that all necessary fields are present.
func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}
	if len(genDoc.ChainID) > MaxChainIDLen {
		return fmt.Errorf("chain_id in genesis doc is too long (max: %d)", MaxChainIDLen)
	}
	if len(genDoc.Validators) == 0 {
		return errors.New("genesis doc must include at least one validator")
	}
	for _, v := range genDoc.Validators {
		if v.Stake == 0 {
			return fmt.Errorf("the genesis file cannot contain validators with no stake: %v", v.Name)
		}
		if err := v.Name.PubKey().Validate(); err != nil {
			return fmt.Errorf("invalid public key for validator %v: %w", v.Name, err)
		}
	}
	for i := 1; i < len(genDoc.Checkpoints); i++ {
		if genDoc.Checkpoints[i] <= genDoc.Checkpoints[i-1] {
			return fmt.Errorf("genesis checkpoints must be strictly increasing, got %d after %d",
				genDoc.Checkpoints[i], genDoc.Checkpoints[i-1])
		}
	}
	return nil
}

// Committee returns the genesis committee, with its epoch set to
// FirstVerificationEpoch regardless of the recorded epoch.
func (genDoc *GenesisDoc) Committee() (*Committee, error) {
	members := make([]Authority, len(genDoc.Validators))
	for i, v := range genDoc.Validators {
		members[i] = Authority{Name: v.Name, Stake: v.Stake}
	}
	return GenesisCommittee(members)
}

// GenesisCommittee builds the bootstrap committee from members, forcing the
// epoch to FirstVerificationEpoch.
func GenesisCommittee(members []Authority) (*Committee, error) {
	return NewCommittee(FirstVerificationEpoch, members)
}

//------------------------------------------------------------
// Make genesis state from file

// GenesisDocFromJSON unmarshalls JSON data into a GenesisDoc.
func GenesisDocFromJSON(jsonBlob []byte) (*GenesisDoc, error) {
	genDoc := GenesisDoc{}
	err := json.Unmarshal(jsonBlob, &genDoc)
	if err != nil {
		return nil, err
	}

	if err := genDoc.ValidateAndComplete(); err != nil {
		return nil, err
	}

	return &genDoc, err
}

// GenesisDocFromFile reads JSON data from a file and unmarshalls it into a GenesisDoc.
func GenesisDocFromFile(genDocFile string) (*GenesisDoc, error) {
	jsonBlob, err := os.ReadFile(genDocFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read GenesisDoc file: %w", err)
	}
	genDoc, err := GenesisDocFromJSON(jsonBlob)
	if err != nil {
		return nil, fmt.Errorf("error reading GenesisDoc at %s: %w", genDocFile, err)
	}
	return genDoc, nil
}
