package nonce_test

import (
	"errors"
	"testing"
	"time"

	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/x/shared/nonce"
)

var (
	errNonce   = errors.New("invalid nonce")
	errRequest = errors.New("invalid request")
)

// MockErrorProvider implements ErrorProvider for testing.
type MockErrorProvider struct{}

func (m *MockErrorProvider) InvalidNonceError(msg string) error {
	return wrapped{base: errNonce, msg: msg}
}

func (m *MockErrorProvider) InvalidRequestError(msg string) error {
	return wrapped{base: errRequest, msg: msg}
}

type wrapped struct {
	base error
	msg  string
}

func (e wrapped) Error() string { return e.base.Error() + ": " + e.msg }
func (e wrapped) Unwrap() error { return e.base }

func setupManager(t *testing.T) (*nonce.Manager, sdk.Context) {
	t.Helper()
	storeKey := storetypes.NewKVStoreKey("auth")
	ctx := testutil.DefaultContext(storeKey, storetypes.NewTransientStoreKey("transient_test"))
	ctx = ctx.WithBlockTime(time.Unix(1_700_000_000, 0))

	return nonce.NewManager(storeKey, &MockErrorProvider{}), ctx
}

func TestValidateRequestNonce_Success(t *testing.T) {
	manager, ctx := setupManager(t)
	now := ctx.BlockTime().Unix()

	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender1", 1, now))
	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender1", 2, now))
	// gaps are allowed
	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender1", 10, now))
	// nonces are per sender
	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender2", 1, now))

	require.Equal(t, uint64(10), manager.CurrentNonce(ctx, "sender1"))
	require.Equal(t, uint64(1), manager.CurrentNonce(ctx, "sender2"))
	require.Zero(t, manager.CurrentNonce(ctx, "sender3"))
}

func TestValidateRequestNonce_Replay(t *testing.T) {
	manager, ctx := setupManager(t)
	now := ctx.BlockTime().Unix()

	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender1", 5, now))

	err := manager.ValidateRequestNonce(ctx, "sender1", 5, now)
	require.ErrorIs(t, err, errNonce)
	require.Contains(t, err.Error(), "replay detected")

	err = manager.ValidateRequestNonce(ctx, "sender1", 3, now)
	require.ErrorIs(t, err, errNonce)
	require.Equal(t, uint64(5), manager.CurrentNonce(ctx, "sender1"))
}

func TestValidateRequestNonce_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		nonce     uint64
		offset    int64
		timestamp int64
		want      error
	}{
		{name: "empty sender", sender: "", nonce: 1, want: errRequest},
		{name: "sender with slash", sender: "a/b", nonce: 1, want: errRequest},
		{name: "zero nonce", sender: "s", nonce: 0, want: errNonce},
		{name: "non-positive timestamp", sender: "s", nonce: 1, timestamp: -1, want: errRequest},
		{name: "too old", sender: "s", nonce: 1, offset: -nonce.MaxTimestampAge - 1, want: errRequest},
		{name: "too far ahead", sender: "s", nonce: 1, offset: nonce.MaxFutureDrift + 1, want: errRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			manager, ctx := setupManager(t)
			ts := tc.timestamp
			if ts == 0 {
				ts = ctx.BlockTime().Unix() + tc.offset
			}
			require.ErrorIs(t, manager.ValidateRequestNonce(ctx, tc.sender, tc.nonce, ts), tc.want)
		})
	}
}

func TestValidateRequestNonce_ClockDriftBoundaries(t *testing.T) {
	manager, ctx := setupManager(t)
	now := ctx.BlockTime().Unix()

	require.NoError(t, manager.ValidateRequestNonce(ctx, "s", 1, now-nonce.MaxTimestampAge))
	require.NoError(t, manager.ValidateRequestNonce(ctx, "s", 2, now+nonce.MaxFutureDrift))
}

func TestPruneExpiredNonces(t *testing.T) {
	manager, ctx := setupManager(t)
	start := ctx.BlockTime()

	require.NoError(t, manager.ValidateRequestNonce(ctx, "idle", 4, start.Unix()))

	later := ctx.WithBlockTime(start.Add(time.Duration(nonce.DefaultNonceTTLSeconds+10) * time.Second))
	require.NoError(t, manager.ValidateRequestNonce(later, "active", 1, later.BlockTime().Unix()))

	pruned, err := manager.PruneExpiredNonces(later, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, pruned)
	require.Zero(t, manager.CurrentNonce(later, "idle"))
	require.Equal(t, uint64(1), manager.CurrentNonce(later, "active"))
}

func TestPruneExpiredNonces_BatchLimit(t *testing.T) {
	manager, ctx := setupManager(t)
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, manager.ValidateRequestNonce(ctx, s, 1, ctx.BlockTime().Unix()))
	}

	later := ctx.WithBlockTime(ctx.BlockTime().Add(30 * 24 * time.Hour))
	pruned, err := manager.PruneExpiredNonces(later, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 2, pruned)

	pruned, err = manager.PruneExpiredNonces(later, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 1, pruned)
}

func TestPruneExpiredNonces_RejectsShortTTL(t *testing.T) {
	manager, ctx := setupManager(t)
	_, err := manager.PruneExpiredNonces(ctx, nonce.MaxTimestampAge, 10)
	require.Error(t, err)
}

func TestInitGenesisStampsSchemaVersion(t *testing.T) {
	manager, ctx := setupManager(t)
	require.Zero(t, manager.StoredSchemaVersion(ctx))

	manager.InitGenesis(ctx)
	require.Equal(t, nonce.SchemaVersion, manager.StoredSchemaVersion(ctx))

	// the schema key is outside the nonce prefixes and survives pruning
	require.NoError(t, manager.ValidateRequestNonce(ctx, "sender1", 1, ctx.BlockTime().Unix()))
	later := ctx.WithBlockTime(ctx.BlockTime().Add(30 * 24 * time.Hour))
	pruned, err := manager.PruneExpiredNonces(later, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, pruned)
	require.Equal(t, nonce.SchemaVersion, manager.StoredSchemaVersion(later))
}
