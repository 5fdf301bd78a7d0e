package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// GetPhase returns the current ceremony phase. A fresh store is in Join.
func (k Keeper) GetPhase(ctx sdk.Context) types.Phase {
	bz := ctx.KVStore(k.storeKey).Get(types.PhaseKey)
	if len(bz) != 1 {
		return types.PhaseJoin
	}
	return types.Phase(bz[0])
}

func (k Keeper) setPhase(ctx sdk.Context, phase types.Phase) {
	ctx.KVStore(k.storeKey).Set(types.PhaseKey, []byte{byte(phase)})
}

// Advance opens the Commit phase. It is only valid from Join, only for the
// coordinator, and only once enough participants have joined, checked in that
// order.
func (k Keeper) Advance(ctx sdk.Context, requestedBy string) error {
	phase := k.GetPhase(ctx)
	if phase != types.PhaseJoin {
		return types.ErrWrongPhase.Wrapf("ceremony already started, phase is %s", phase)
	}

	if !k.IsCoordinator(ctx, requestedBy) {
		return types.ErrUnauthorized.Wrapf("%s cannot start the ceremony", requestedBy)
	}

	required := k.GetParams(ctx).RequiredParticipants()
	if count := k.ParticipantCount(ctx); count < uint64(required) {
		return types.ErrInsufficientParticipants.Wrapf("have %d, need %d", count, required)
	}

	if err := k.transition(ctx, types.PhaseCommit, types.TriggerCoordinator); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCeremonyStarted,
			sdk.NewAttribute(types.AttributeKeyIdentity, requestedBy),
			sdk.NewAttribute(types.AttributeKeyParticipantCount, fmt.Sprintf("%d", k.ParticipantCount(ctx))),
		),
	)
	return nil
}

// AutoAdvanceIfComplete is the post-condition run at the end of every accepted
// commit and reveal. It moves Commit to Reveal once every participant has
// committed and Reveal to Complete once every participant has revealed.
func (k Keeper) AutoAdvanceIfComplete(ctx sdk.Context) (bool, error) {
	phase := k.GetPhase(ctx)

	var done func(types.CommitRecord) bool
	switch phase {
	case types.PhaseCommit:
		done = func(r types.CommitRecord) bool { return r.Committed }
	case types.PhaseReveal:
		done = func(r types.CommitRecord) bool { return r.Revealed }
	default:
		return false, nil
	}

	if !k.allRecords(ctx, done) {
		return false, nil
	}

	next, ok := phase.Next()
	if !ok {
		return false, types.ErrStateCorruption.Wrapf("no transition out of %s", phase)
	}
	if err := k.transition(ctx, next.To, types.TriggerCompletion); err != nil {
		return false, err
	}
	return true, nil
}

// allRecords reports whether done holds for the record of every registered
// participant. An empty registry never satisfies it.
func (k Keeper) allRecords(ctx sdk.Context, done func(types.CommitRecord) bool) bool {
	participants := k.GetAllParticipants(ctx)
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		record, found := k.GetRecord(ctx, p.Identity)
		if !found || !done(record) {
			return false
		}
	}
	return true
}

// transition moves the ceremony to `to` if the transition table allows it for trigger.
func (k Keeper) transition(ctx sdk.Context, to types.Phase, trigger types.Trigger) error {
	from := k.GetPhase(ctx)
	if !from.CanTransitionTo(to, trigger) {
		return types.ErrWrongPhase.Wrapf("illegal transition %s -> %s by %s", from, to, trigger)
	}

	k.setPhase(ctx, to)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCeremonyPhaseChanged,
			sdk.NewAttribute(types.AttributeKeyFromPhase, from.String()),
			sdk.NewAttribute(types.AttributeKeyToPhase, to.String()),
			sdk.NewAttribute(types.AttributeKeyTrigger, trigger.String()),
		),
	)
	k.metrics.PhaseTransitions.WithLabelValues(from.String(), to.String()).Inc()
	k.Logger(ctx).Info("ceremony phase changed", "from", from.String(), "to", to.String(), "trigger", trigger.String())

	return nil
}
