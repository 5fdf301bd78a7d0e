package keeper

import (
	"context"

	"cosmossdk.io/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

type queryServer struct {
	Keeper
}

const (
	defaultPaginationLimit = 100
	maxPaginationLimit     = 1000
)

// NewQueryServerImpl returns an implementation of the QueryServer interface
func NewQueryServerImpl(keeper Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

var _ types.QueryServer = queryServer{}

// sanitizePagination enforces sensible defaults and caps for paginated queries.
func sanitizePagination(p *query.PageRequest) *query.PageRequest {
	if p == nil {
		return &query.PageRequest{Limit: defaultPaginationLimit}
	}

	if p.Limit == 0 {
		p.Limit = defaultPaginationLimit
	}

	if p.Limit > maxPaginationLimit {
		p.Limit = maxPaginationLimit
	}

	return p
}

// Params returns the ceremony parameters
func (qs queryServer) Params(goCtx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	return &types.QueryParamsResponse{Params: qs.GetParams(ctx)}, nil
}

// CurrentPhase returns the current phase
func (qs queryServer) CurrentPhase(goCtx context.Context, req *types.QueryCurrentPhaseRequest) (*types.QueryCurrentPhaseResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	return &types.QueryCurrentPhaseResponse{
		Phase:            qs.GetPhase(ctx),
		ParticipantCount: qs.ParticipantCount(ctx),
	}, nil
}

// ParticipantAt returns the participant with the given join index
func (qs queryServer) ParticipantAt(goCtx context.Context, req *types.QueryParticipantAtRequest) (*types.QueryParticipantAtResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	participant, found := qs.GetParticipantAt(ctx, req.Index)
	if !found {
		return nil, status.Errorf(codes.NotFound, "no participant at index %d", req.Index)
	}

	return &types.QueryParticipantAtResponse{Participant: participant}, nil
}

// Participants returns the registry in join order
func (qs queryServer) Participants(goCtx context.Context, req *types.QueryParticipantsRequest) (*types.QueryParticipantsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	store := prefix.NewStore(ctx.KVStore(qs.storeKey), types.ParticipantKeyPrefix)

	participants := []types.Participant{}
	pageRes, err := query.Paginate(store, sanitizePagination(req.Pagination), func(key []byte, value []byte) error {
		var p types.Participant
		if err := qs.cdc.Unmarshal(value, &p); err != nil {
			return err
		}
		participants = append(participants, p)
		return nil
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return &types.QueryParticipantsResponse{
		Participants: participants,
		Pagination:   pageRes,
	}, nil
}

// IsCoordinator reports the role of an identity
func (qs queryServer) IsCoordinator(goCtx context.Context, req *types.QueryIsCoordinatorRequest) (*types.QueryIsCoordinatorResponse, error) {
	if req == nil || req.Identity == "" {
		return nil, status.Error(codes.InvalidArgument, "identity cannot be empty")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	participant, found := qs.GetParticipant(ctx, req.Identity)

	return &types.QueryIsCoordinatorResponse{
		IsParticipant: found,
		IsCoordinator: found && participant.IsCoordinator(),
	}, nil
}

// Record returns an identity's commit record
func (qs queryServer) Record(goCtx context.Context, req *types.QueryRecordRequest) (*types.QueryRecordResponse, error) {
	if req == nil || req.Identity == "" {
		return nil, status.Error(codes.InvalidArgument, "identity cannot be empty")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	record, found := qs.GetRecord(ctx, req.Identity)
	if !found {
		return nil, status.Errorf(codes.NotFound, "no record for %s", req.Identity)
	}

	return &types.QueryRecordResponse{Record: record}, nil
}

// Transcript returns the full transcript with its audit report
func (qs queryServer) Transcript(goCtx context.Context, req *types.QueryTranscriptRequest) (*types.QueryTranscriptResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	transcript := qs.ExportGenesis(ctx)

	return &types.QueryTranscriptResponse{
		Transcript: *transcript,
		Audit:      types.VerifyTranscript(*transcript),
	}, nil
}
