package keeper

import (
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// Register appends identity to the participant registry. The first identity
// becomes the coordinator. An empty commit record is created alongside.
func (k Keeper) Register(ctx sdk.Context, identity string) (types.Participant, error) {
	if err := types.ValidateIdentity(identity); err != nil {
		return types.Participant{}, err
	}
	if k.IsParticipant(ctx, identity) {
		return types.Participant{}, types.ErrAlreadyRegistered.Wrapf("identity %s", identity)
	}
	if phase := k.GetPhase(ctx); phase != types.PhaseJoin {
		return types.Participant{}, types.ErrPhaseClosed.Wrapf("ceremony is in phase %s", phase)
	}

	count := k.ParticipantCount(ctx)
	if limit := k.GetParams(ctx).MaxParticipants; limit > 0 && count >= uint64(limit) {
		return types.Participant{}, types.ErrCeremonyFull.Wrapf("limit is %d participants", limit)
	}

	role := types.RoleRegular
	if count == 0 {
		role = types.RoleCoordinator
	}
	participant := types.Participant{
		Identity: identity,
		Role:     role,
		Index:    count,
	}

	if err := k.setParticipant(ctx, participant); err != nil {
		return types.Participant{}, err
	}
	k.setParticipantCount(ctx, count+1)
	if err := k.setRecord(ctx, types.NewCommitRecord(identity)); err != nil {
		return types.Participant{}, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCeremonyJoined,
			sdk.NewAttribute(types.AttributeKeyIdentity, identity),
			sdk.NewAttribute(types.AttributeKeyRole, role.String()),
			sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", participant.Index)),
		),
	)
	k.Logger(ctx).Info("participant joined", "identity", identity, "role", role.String(), "index", participant.Index)

	return participant, nil
}

// IsParticipant reports whether identity has joined.
func (k Keeper) IsParticipant(ctx sdk.Context, identity string) bool {
	return ctx.KVStore(k.storeKey).Has(types.ParticipantIndexKey(identity))
}

// IsCoordinator reports whether identity holds the coordinator role.
func (k Keeper) IsCoordinator(ctx sdk.Context, identity string) bool {
	p, found := k.GetParticipant(ctx, identity)
	return found && p.IsCoordinator()
}

// ParticipantCount returns the number of registered participants.
func (k Keeper) ParticipantCount(ctx sdk.Context) uint64 {
	return types.DecodeIndex(ctx.KVStore(k.storeKey).Get(types.ParticipantCountKey))
}

func (k Keeper) setParticipantCount(ctx sdk.Context, count uint64) {
	ctx.KVStore(k.storeKey).Set(types.ParticipantCountKey, types.EncodeIndex(count))
}

// GetParticipantAt returns the participant with join index.
func (k Keeper) GetParticipantAt(ctx sdk.Context, index uint64) (types.Participant, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.ParticipantKey(index))
	if bz == nil {
		return types.Participant{}, false
	}

	var p types.Participant
	k.cdc.MustUnmarshal(bz, &p)
	return p, true
}

// GetParticipant returns the participant registered under identity.
func (k Keeper) GetParticipant(ctx sdk.Context, identity string) (types.Participant, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.ParticipantIndexKey(identity))
	if bz == nil {
		return types.Participant{}, false
	}
	return k.GetParticipantAt(ctx, types.DecodeIndex(bz))
}

// GetAllParticipants returns the registry in join order.
func (k Keeper) GetAllParticipants(ctx sdk.Context) []types.Participant {
	store := ctx.KVStore(k.storeKey)
	iter := storetypes.KVStorePrefixIterator(store, types.ParticipantKeyPrefix)
	defer iter.Close()

	participants := []types.Participant{}
	for ; iter.Valid(); iter.Next() {
		var p types.Participant
		k.cdc.MustUnmarshal(iter.Value(), &p)
		participants = append(participants, p)
	}
	return participants
}

func (k Keeper) setParticipant(ctx sdk.Context, p types.Participant) error {
	bz, err := k.cdc.Marshal(&p)
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	store := ctx.KVStore(k.storeKey)
	store.Set(types.ParticipantKey(p.Index), bz)
	store.Set(types.ParticipantIndexKey(p.Identity), types.EncodeIndex(p.Index))
	return nil
}
