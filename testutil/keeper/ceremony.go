package keeper

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/x/ceremony/keeper"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// CeremonyKeeper creates a test keeper for the Ceremony module backed by an
// in-memory IAVL store, with default params set.
func CeremonyKeeper(t testing.TB) (*keeper.Keeper, sdk.Context) {
	return CeremonyKeeperWithParams(t, types.DefaultParams())
}

// CeremonyKeeperWithParams is CeremonyKeeper with explicit params.
func CeremonyKeeperWithParams(t testing.TB, params types.Params) (*keeper.Keeper, sdk.Context) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	k := keeper.NewKeeper(types.ModuleCdc, storeKey)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{ChainID: "distmpc-test-1"}, false, log.NewNopLogger())
	require.NoError(t, k.SetParams(ctx, params))

	return k, ctx
}

// JoinAll registers identities in order and fails the test on any error.
func JoinAll(t testing.TB, k *keeper.Keeper, ctx sdk.Context, identities ...string) {
	ms := keeper.NewMsgServerImpl(*k)
	for _, id := range identities {
		_, err := ms.Join(ctx, types.NewMsgJoin(id))
		require.NoError(t, err, "join %s", id)
	}
}

// StartedCeremony returns a keeper in the Commit phase with identities joined.
// The first identity is the coordinator.
func StartedCeremony(t testing.TB, identities ...string) (*keeper.Keeper, sdk.Context) {
	k, ctx := CeremonyKeeper(t)
	JoinAll(t, k, ctx, identities...)
	_, err := keeper.NewMsgServerImpl(*k).Start(ctx, types.NewMsgStart(identities[0]))
	require.NoError(t, err)
	return k, ctx
}

// CommitAll commits commitments[i] for identities[i].
func CommitAll(t testing.TB, k *keeper.Keeper, ctx sdk.Context, identities []string, commitments [][]byte) {
	ms := keeper.NewMsgServerImpl(*k)
	for i, id := range identities {
		_, err := ms.Commit(ctx, types.NewMsgCommit(id, commitments[i]))
		require.NoError(t, err, "commit %s", id)
	}
}
