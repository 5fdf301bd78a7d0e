package keeper_test

import (
	"fmt"
	"testing"

	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	keepertest "github.com/paw-chain/distmpc/testutil/keeper"
	"github.com/paw-chain/distmpc/x/ceremony/keeper"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

func TestQueryCurrentPhase(t *testing.T) {
	k, ctx := keepertest.CeremonyKeeper(t)
	qs := keeper.NewQueryServerImpl(*k)
	keepertest.JoinAll(t, k, ctx, "alice", "bob")

	res, err := qs.CurrentPhase(ctx, &types.QueryCurrentPhaseRequest{})
	require.NoError(t, err)
	require.Equal(t, types.PhaseJoin, res.Phase)
	require.Equal(t, uint64(2), res.ParticipantCount)
}

func TestQueryParticipantAt(t *testing.T) {
	k, ctx := keepertest.CeremonyKeeper(t)
	qs := keeper.NewQueryServerImpl(*k)
	keepertest.JoinAll(t, k, ctx, "alice", "bob")

	res, err := qs.ParticipantAt(ctx, &types.QueryParticipantAtRequest{Index: 1})
	require.NoError(t, err)
	require.Equal(t, "bob", res.Participant.Identity)
	require.Equal(t, types.RoleRegular, res.Participant.Role)

	_, err = qs.ParticipantAt(ctx, &types.QueryParticipantAtRequest{Index: 2})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = qs.ParticipantAt(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestQueryParticipantsPagination(t *testing.T) {
	k, ctx := keepertest.CeremonyKeeper(t)
	qs := keeper.NewQueryServerImpl(*k)
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	keepertest.JoinAll(t, k, ctx, ids...)

	first, err := qs.Participants(ctx, &types.QueryParticipantsRequest{Pagination: &query.PageRequest{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, first.Participants, 3)
	require.Equal(t, "p0", first.Participants[0].Identity)
	require.NotEmpty(t, first.Pagination.NextKey)

	second, err := qs.Participants(ctx, &types.QueryParticipantsRequest{Pagination: &query.PageRequest{Key: first.Pagination.NextKey}})
	require.NoError(t, err)
	require.Len(t, second.Participants, 2)
	require.Equal(t, "p3", second.Participants[0].Identity)
	require.Empty(t, second.Pagination.NextKey)

	_, err = qs.Participants(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestQueryParticipantsEmpty(t *testing.T) {
	k, ctx := keepertest.CeremonyKeeper(t)
	res, err := keeper.NewQueryServerImpl(*k).Participants(ctx, &types.QueryParticipantsRequest{})
	require.NoError(t, err)
	require.NotNil(t, res.Participants)
	require.Empty(t, res.Participants)
}

func TestQueryIsCoordinator(t *testing.T) {
	k, ctx := keepertest.CeremonyKeeper(t)
	qs := keeper.NewQueryServerImpl(*k)
	keepertest.JoinAll(t, k, ctx, "alice", "bob")

	tests := []struct {
		identity    string
		participant bool
		coordinator bool
	}{
		{"alice", true, true},
		{"bob", true, false},
		{"carol", false, false},
	}
	for _, tc := range tests {
		res, err := qs.IsCoordinator(ctx, &types.QueryIsCoordinatorRequest{Identity: tc.identity})
		require.NoError(t, err)
		require.Equal(t, tc.participant, res.IsParticipant, tc.identity)
		require.Equal(t, tc.coordinator, res.IsCoordinator, tc.identity)
	}

	_, err := qs.IsCoordinator(ctx, &types.QueryIsCoordinatorRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestQueryRecord(t *testing.T) {
	ids := []string{"alice", "bob"}
	k, ctx := keepertest.StartedCeremony(t, ids...)
	qs := keeper.NewQueryServerImpl(*k)
	require.NoError(t, k.RecordCommitment(ctx, "bob", []byte("cb")))

	res, err := qs.Record(ctx, &types.QueryRecordRequest{Identity: "bob"})
	require.NoError(t, err)
	require.True(t, res.Record.Committed)

	_, err = qs.Record(ctx, &types.QueryRecordRequest{Identity: "mallory"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestQueryTranscript(t *testing.T) {
	ids := []string{"alice", "bob"}
	k, ctx := keepertest.StartedCeremony(t, ids...)
	qs := keeper.NewQueryServerImpl(*k)

	res, err := qs.Transcript(ctx, &types.QueryTranscriptRequest{})
	require.NoError(t, err)
	require.True(t, res.Audit.Valid)
	require.Equal(t, types.PhaseCommit, res.Transcript.Phase)
	require.Len(t, res.Transcript.Participants, 2)
	require.Equal(t, types.TranscriptHash(res.Transcript), res.Audit.TranscriptHash)
}
