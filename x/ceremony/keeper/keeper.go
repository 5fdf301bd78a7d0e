package keeper

import (
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// Keeper maintains the state of the Ceremony module
type Keeper struct {
	cdc      *codec.LegacyAmino
	storeKey storetypes.StoreKey
	metrics  *CeremonyMetrics
}

// NewKeeper creates a new Ceremony Keeper instance
func NewKeeper(cdc *codec.LegacyAmino, storeKey storetypes.StoreKey) *Keeper {
	return &Keeper{
		cdc:      cdc,
		storeKey: storeKey,
		metrics:  NewCeremonyMetrics(),
	}
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// StoreKey returns the module's store key.
func (k Keeper) StoreKey() storetypes.StoreKey {
	return k.storeKey
}

// GetParams gets all parameters from the store
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := ctx.KVStore(k.storeKey).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}

	var params types.Params
	if err := k.cdc.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}

	return params
}

// SetParams sets the module parameters
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	bz, err := k.cdc.Marshal(&params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	ctx.KVStore(k.storeKey).Set(types.ParamsKey, bz)
	return nil
}

// atomically runs fn against a cached branch of ctx and writes the branch back
// only when fn succeeds, so a rejected action leaves no trace in state. Events
// emitted by fn reach ctx only on success.
func (k Keeper) atomically(ctx sdk.Context, fn func(sdk.Context) error) error {
	cms := ctx.MultiStore().CacheMultiStore()
	cacheCtx := ctx.WithMultiStore(cms).WithEventManager(sdk.NewEventManager())
	if err := fn(cacheCtx); err != nil {
		return err
	}
	cms.Write()
	ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())
	return nil
}
