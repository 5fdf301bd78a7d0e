package ante

import (
	"errors"
	"testing"
	"time"

	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/x/ceremony/types"
	"github.com/paw-chain/distmpc/x/shared/nonce"
)

const testChainID = "distmpc-test"

func setupAnte(t *testing.T) (RequestHandler, *nonce.Manager, sdk.Context) {
	t.Helper()
	storeKey := storetypes.NewKVStoreKey(types.AuthStoreKey)
	ctx := testutil.DefaultContext(storeKey, storetypes.NewTransientStoreKey("transient_test"))
	ctx = ctx.WithChainID(testChainID).WithBlockTime(time.Unix(1_700_000_000, 0))

	nonces := nonce.NewManager(storeKey, types.NonceErrors{})
	handler, err := NewAnteHandler(HandlerOptions{NonceManager: nonces, MaxRequestBytes: 64})
	require.NoError(t, err)
	return handler, nonces, ctx
}

func signed(t *testing.T, priv *secp256k1.PrivKey, ctx sdk.Context, n uint64, mutate func(*types.SignedRequest)) *types.SignedRequest {
	t.Helper()
	req := types.NewSignedRequest(types.TypeMsgCommit, testChainID, n, ctx.BlockTime().Unix())
	req.Commitment = []byte("commitment")
	if mutate != nil {
		mutate(req)
	}
	require.NoError(t, req.Sign(priv))
	return req
}

func TestNewAnteHandlerRequiresNonceManager(t *testing.T) {
	_, err := NewAnteHandler(HandlerOptions{})
	require.Error(t, err)
}

func TestAnteHandlerAcceptsAndConsumesNonce(t *testing.T) {
	handler, nonces, ctx := setupAnte(t)
	priv := secp256k1.GenPrivKey()

	req := signed(t, priv, ctx, 1, nil)
	_, err := handler(ctx, req)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonces.CurrentNonce(ctx, req.Sender))

	// replay
	_, err = handler(ctx, req)
	require.True(t, errors.Is(err, types.ErrInvalidNonce), "got %v", err)

	_, err = handler(ctx, signed(t, priv, ctx, 2, nil))
	require.NoError(t, err)
}

func TestAnteHandlerRejections(t *testing.T) {
	priv := secp256k1.GenPrivKey()

	tests := []struct {
		name  string
		build func(t *testing.T, ctx sdk.Context) *types.SignedRequest
		err   error
	}{
		{
			name: "nil request",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return nil
			},
			err: types.ErrInvalidRequest,
		},
		{
			name: "unknown action",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return signed(t, priv, ctx, 1, func(r *types.SignedRequest) { r.Action = "abort" })
			},
			err: types.ErrInvalidRequest,
		},
		{
			name: "other chain",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return signed(t, priv, ctx, 1, func(r *types.SignedRequest) { r.ChainID = "elsewhere" })
			},
			err: types.ErrInvalidRequest,
		},
		{
			name: "oversized payload",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return signed(t, priv, ctx, 1, func(r *types.SignedRequest) { r.Commitment = make([]byte, 65) })
			},
			err: types.ErrInvalidRequest,
		},
		{
			name: "tampered after signing",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				req := signed(t, priv, ctx, 1, nil)
				req.Commitment = []byte("substitute")
				return req
			},
			err: types.ErrInvalidSignature,
		},
		{
			name: "zero nonce",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return signed(t, priv, ctx, 0, nil)
			},
			err: types.ErrInvalidNonce,
		},
		{
			name: "stale timestamp",
			build: func(t *testing.T, ctx sdk.Context) *types.SignedRequest {
				return signed(t, priv, ctx, 1, func(r *types.SignedRequest) {
					r.Timestamp = ctx.BlockTime().Unix() - nonce.MaxTimestampAge - 1
				})
			},
			err: types.ErrInvalidRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, nonces, ctx := setupAnte(t)
			req := tc.build(t, ctx)
			_, err := handler(ctx, req)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.err), "got %v", err)
			if req != nil {
				require.Zero(t, nonces.CurrentNonce(ctx, req.Sender))
			}
		})
	}
}

type recordingDecorator struct {
	name  string
	calls *[]string
	fail  bool
}

func (d recordingDecorator) AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error) {
	*d.calls = append(*d.calls, d.name)
	if d.fail {
		return ctx, types.ErrInvalidRequest
	}
	return next(ctx, req)
}

func TestChainDecoratorsOrderAndShortCircuit(t *testing.T) {
	var calls []string
	handler := ChainDecorators(
		recordingDecorator{name: "first", calls: &calls},
		recordingDecorator{name: "second", calls: &calls, fail: true},
		recordingDecorator{name: "third", calls: &calls},
	)

	_, err := handler(sdk.Context{}, &types.SignedRequest{})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	require.Equal(t, []string{"first", "second"}, calls)

	_, err = ChainDecorators()(sdk.Context{}, nil)
	require.NoError(t, err)
}
