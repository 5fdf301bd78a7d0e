package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// InitGenesis loads a transcript into an empty store. The transcript is
// validated in full first; nothing is written if it is inconsistent.
func (k Keeper) InitGenesis(ctx sdk.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return err
	}
	if k.ParticipantCount(ctx) != 0 {
		return types.ErrInvalidGenesis.Wrap("store already holds participants")
	}

	return k.atomically(ctx, func(ctx sdk.Context) error {
		if err := k.SetParams(ctx, genState.Params); err != nil {
			return err
		}
		for _, p := range genState.Participants {
			if err := k.setParticipant(ctx, p); err != nil {
				return err
			}
		}
		k.setParticipantCount(ctx, uint64(len(genState.Participants)))
		for _, r := range genState.Records {
			if err := k.setRecord(ctx, r); err != nil {
				return err
			}
		}
		k.setPhase(ctx, genState.Phase)

		k.Logger(ctx).Info("ceremony genesis initialized",
			"phase", genState.Phase.String(),
			"participants", len(genState.Participants),
		)
		return nil
	})
}

// ExportGenesis returns the module's exported genesis state.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{
		Params:       k.GetParams(ctx),
		Phase:        k.GetPhase(ctx),
		Participants: k.GetAllParticipants(ctx),
		Records:      k.GetAllRecords(ctx),
	}
}
