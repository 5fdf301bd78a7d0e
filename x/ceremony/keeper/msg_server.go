package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// Join registers the sender.
func (ms msgServer) Join(goCtx context.Context, msg *types.MsgJoin) (*types.MsgJoinResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	var participant types.Participant
	err := ms.atomically(ctx, func(ctx sdk.Context) error {
		var err error
		participant, err = ms.Register(ctx, msg.Sender)
		return err
	})
	ms.observe(ctx, types.TypeMsgJoin, msg.Sender, err)
	if err != nil {
		return nil, err
	}

	return &types.MsgJoinResponse{Participant: participant}, nil
}

// Start moves the ceremony from Join to Commit on the coordinator's request.
func (ms msgServer) Start(goCtx context.Context, msg *types.MsgStart) (*types.MsgStartResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	err := ms.atomically(ctx, func(ctx sdk.Context) error {
		return ms.Advance(ctx, msg.Sender)
	})
	ms.observe(ctx, types.TypeMsgStart, msg.Sender, err)
	if err != nil {
		return nil, err
	}

	return &types.MsgStartResponse{Phase: ms.GetPhase(ctx)}, nil
}

// Commit records the sender's commitment.
func (ms msgServer) Commit(goCtx context.Context, msg *types.MsgCommit) (*types.MsgCommitResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	err := ms.atomically(ctx, func(ctx sdk.Context) error {
		return ms.RecordCommitment(ctx, msg.Sender, msg.Commitment)
	})
	ms.observe(ctx, types.TypeMsgCommit, msg.Sender, err)
	if err != nil {
		return nil, err
	}

	return &types.MsgCommitResponse{Phase: ms.GetPhase(ctx)}, nil
}

// PublishReveal records the sender's reveal data and key.
func (ms msgServer) PublishReveal(goCtx context.Context, msg *types.MsgPublishReveal) (*types.MsgPublishRevealResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	err := ms.atomically(ctx, func(ctx sdk.Context) error {
		return ms.RecordReveal(ctx, msg.Sender, msg.RevealData, msg.RevealKey)
	})
	ms.observe(ctx, types.TypeMsgPublishReveal, msg.Sender, err)
	if err != nil {
		return nil, err
	}

	return &types.MsgPublishRevealResponse{Phase: ms.GetPhase(ctx)}, nil
}

func (ms msgServer) observe(ctx sdk.Context, action, sender string, err error) {
	if err == nil {
		ms.metrics.Actions.WithLabelValues(action, "accepted").Inc()
		return
	}

	category := types.CategoryOf(err)
	ms.metrics.Actions.WithLabelValues(action, category.String()).Inc()
	ms.Logger(ctx).Debug("ceremony action rejected", "action", action, "sender", sender, "category", category.String(), "error", err)
}
