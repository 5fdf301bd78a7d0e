package keeper

import (
	"fmt"

	storetypes "cosmossdk.io/store/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// RecordCommitment stores identity's commitment during the Commit phase and
// then runs the completion check.
func (k Keeper) RecordCommitment(ctx sdk.Context, identity string, value []byte) error {
	if phase := k.GetPhase(ctx); phase != types.PhaseCommit {
		return types.ErrWrongPhase.Wrapf("commitments are accepted in %s, ceremony is in %s", types.PhaseCommit, phase)
	}

	record, found := k.GetRecord(ctx, identity)
	if !found {
		return types.ErrNotAParticipant.Wrapf("identity %s", identity)
	}
	if len(value) == 0 {
		return types.ErrEmptyCommitment
	}
	if record.Committed {
		return types.ErrAlreadyCommitted.Wrapf("identity %s", identity)
	}
	if err := k.checkPayloadSize(ctx, "commitment", value); err != nil {
		return err
	}

	record.Commitment = append(cmtbytes.HexBytes{}, value...)
	record.Committed = true
	if err := k.setRecord(ctx, record); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCeremonyCommitted,
			sdk.NewAttribute(types.AttributeKeyIdentity, identity),
			sdk.NewAttribute(types.AttributeKeyCommitment, record.Commitment.String()),
		),
	)
	k.metrics.Commitments.Inc()

	_, err := k.AutoAdvanceIfComplete(ctx)
	return err
}

// RecordReveal stores identity's reveal during the Reveal phase. The reveal
// key must be the hash of the commitment recorded earlier.
func (k Keeper) RecordReveal(ctx sdk.Context, identity string, data, key []byte) error {
	if phase := k.GetPhase(ctx); phase != types.PhaseReveal {
		return types.ErrWrongPhase.Wrapf("reveals are accepted in %s, ceremony is in %s", types.PhaseReveal, phase)
	}

	record, found := k.GetRecord(ctx, identity)
	if !found {
		return types.ErrNotAParticipant.Wrapf("identity %s", identity)
	}
	if record.Revealed {
		return types.ErrAlreadyRevealed.Wrapf("identity %s", identity)
	}
	if len(data) == 0 {
		return types.ErrEmptyField.Wrap("reveal data is empty")
	}
	if len(key) == 0 {
		return types.ErrEmptyField.Wrap("reveal key is empty")
	}
	if err := k.checkPayloadSize(ctx, "reveal data", data); err != nil {
		return err
	}
	if !types.VerifyRevealKey(record.Commitment, key) {
		k.metrics.RevealMismatches.Inc()
		k.Logger(ctx).Error("reveal key does not match commitment", "identity", identity)
		return types.ErrRevealMismatch.Wrapf("identity %s", identity)
	}

	record.RevealData = append(cmtbytes.HexBytes{}, data...)
	record.RevealKey = append(cmtbytes.HexBytes{}, key...)
	record.Revealed = true
	if err := k.setRecord(ctx, record); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCeremonyRevealed,
			sdk.NewAttribute(types.AttributeKeyIdentity, identity),
			sdk.NewAttribute(types.AttributeKeyRevealKey, record.RevealKey.String()),
			sdk.NewAttribute(types.AttributeKeyRevealDataHash, cmtbytes.HexBytes(types.Keccak256(data)).String()),
		),
	)
	k.metrics.Reveals.Inc()

	_, err := k.AutoAdvanceIfComplete(ctx)
	return err
}

func (k Keeper) checkPayloadSize(ctx sdk.Context, field string, value []byte) error {
	if limit := k.GetParams(ctx).MaxPayloadSize; uint64(len(value)) > limit {
		return types.ErrPayloadTooLarge.Wrapf("%s is %d bytes, limit %d", field, len(value), limit)
	}
	return nil
}

// GetRecord returns identity's commit record.
func (k Keeper) GetRecord(ctx sdk.Context, identity string) (types.CommitRecord, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.RecordKey(identity))
	if bz == nil {
		return types.CommitRecord{}, false
	}

	var record types.CommitRecord
	k.cdc.MustUnmarshal(bz, &record)
	return record, true
}

// GetAllRecords returns every commit record in join order.
func (k Keeper) GetAllRecords(ctx sdk.Context) []types.CommitRecord {
	participants := k.GetAllParticipants(ctx)
	records := make([]types.CommitRecord, 0, len(participants))
	for _, p := range participants {
		if record, found := k.GetRecord(ctx, p.Identity); found {
			records = append(records, record)
		}
	}
	return records
}

// iterateRecords walks the raw record store, including records that have no
// participant entry. Used by invariants.
func (k Keeper) iterateRecords(ctx sdk.Context, cb func(types.CommitRecord) bool) error {
	store := ctx.KVStore(k.storeKey)
	iter := storetypes.KVStorePrefixIterator(store, types.RecordKeyPrefix)
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		var record types.CommitRecord
		if err := k.cdc.Unmarshal(iter.Value(), &record); err != nil {
			return types.ErrStateCorruption.Wrapf("undecodable record at key %X: %s", iter.Key(), err)
		}
		if cb(record) {
			break
		}
	}
	return nil
}

func (k Keeper) setRecord(ctx sdk.Context, record types.CommitRecord) error {
	bz, err := k.cdc.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to marshal commit record: %w", err)
	}
	ctx.KVStore(k.storeKey).Set(types.RecordKey(record.Identity), bz)
	return nil
}
