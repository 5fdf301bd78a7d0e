package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cmtos "github.com/cometbft/cometbft/libs/os"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// GenesisDoc is the genesis file of a ceremony ledger.
type GenesisDoc struct {
	ChainID     string             `json:"chain_id"`
	GenesisTime time.Time          `json:"genesis_time"`
	AppState    types.GenesisState `json:"app_state"`
}

// GenesisConfig holds configuration parameters for genesis state
type GenesisConfig struct {
	ChainID         string
	GenesisTime     time.Time
	MinParticipants uint32
	MaxParticipants uint32
	MaxPayloadSize  uint64
}

// DefaultGenesisConfig returns the default genesis configuration.
func DefaultGenesisConfig() GenesisConfig {
	params := types.DefaultParams()
	return GenesisConfig{
		ChainID:         DefaultChainID,
		GenesisTime:     time.Now().UTC(),
		MinParticipants: params.MinParticipants,
		MaxParticipants: params.MaxParticipants,
		MaxPayloadSize:  params.MaxPayloadSize,
	}
}

// NewGenesisDocFromConfig creates an empty ceremony in the Join phase.
func NewGenesisDocFromConfig(config GenesisConfig) GenesisDoc {
	state := types.DefaultGenesis()
	state.Params = types.Params{
		MinParticipants: config.MinParticipants,
		MaxParticipants: config.MaxParticipants,
		MaxPayloadSize:  config.MaxPayloadSize,
	}

	return GenesisDoc{
		ChainID:     config.ChainID,
		GenesisTime: config.GenesisTime.UTC().Truncate(time.Second),
		AppState:    *state,
	}
}

// Validate checks the chain id and the transcript.
func (g GenesisDoc) Validate() error {
	if g.ChainID == "" {
		return types.ErrInvalidGenesis.Wrap("chain id cannot be empty")
	}
	if g.GenesisTime.IsZero() {
		return types.ErrInvalidGenesis.Wrap("genesis time is not set")
	}
	return g.AppState.Validate()
}

// SaveAs writes the genesis document to path as indented JSON.
func (g GenesisDoc) SaveAs(path string) error {
	if err := cmtos.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	bz, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0o644)
}

// GenesisDocFromFile reads and validates a genesis document.
func GenesisDocFromFile(path string) (GenesisDoc, error) {
	if !cmtos.FileExists(path) {
		return GenesisDoc{}, fmt.Errorf("genesis file %s does not exist", path)
	}

	bz, err := os.ReadFile(path)
	if err != nil {
		return GenesisDoc{}, err
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return GenesisDoc{}, fmt.Errorf("failed to parse genesis file %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return GenesisDoc{}, err
	}
	return doc, nil
}
