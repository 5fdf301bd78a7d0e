package app

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/x/ceremony/keeper"
	"github.com/paw-chain/distmpc/x/ceremony/types"
	"github.com/paw-chain/distmpc/x/shared/nonce"
)

const testChainID = "distmpc-test-1"

var genesisTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return genesisTime.Add(time.Minute) }

type member struct {
	priv  *secp256k1.PrivKey
	id    string
	nonce uint64
}

func newMember(t *testing.T) *member {
	t.Helper()
	priv := secp256k1.GenPrivKey()
	id, err := types.IdentityFromPubKey(priv.PubKey())
	require.NoError(t, err)
	return &member{priv: priv, id: id}
}

// request signs action with the member's next nonce. The nonce is only
// advanced by deliver once the ledger accepts the request.
func (m *member) request(t *testing.T, action string, mutate func(*types.SignedRequest)) *types.SignedRequest {
	t.Helper()
	req := types.NewSignedRequest(action, testChainID, m.nonce+1, fixedClock().Unix())
	if mutate != nil {
		mutate(req)
	}
	require.NoError(t, req.Sign(m.priv))
	return req
}

func (m *member) deliver(t *testing.T, a *CeremonyApp, action string, mutate func(*types.SignedRequest)) Receipt {
	t.Helper()
	receipt, err := a.Deliver(m.request(t, action, mutate))
	require.NoError(t, err, "%s by %s", action, m.id)
	m.nonce++
	return receipt
}

func withCommitment(c []byte) func(*types.SignedRequest) {
	return func(r *types.SignedRequest) { r.Commitment = c }
}

func withReveal(data, commitment []byte) func(*types.SignedRequest) {
	return func(r *types.SignedRequest) {
		r.RevealData = data
		r.RevealKey = types.RevealKeyFor(commitment)
	}
}

func newLedger(t *testing.T, db dbm.DB, opts ...Option) *CeremonyApp {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	a, err := NewCeremonyApp(log.NewNopLogger(), db, testChainID, opts...)
	require.NoError(t, err)
	return a
}

func setupLedger(t *testing.T, opts ...Option) *CeremonyApp {
	t.Helper()
	a := newLedger(t, dbm.NewMemDB(), opts...)
	cfg := DefaultGenesisConfig()
	cfg.ChainID = testChainID
	cfg.GenesisTime = genesisTime
	_, err := a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.NoError(t, err)
	return a
}

func TestInitGenesisCommitsFirstHeight(t *testing.T) {
	a := newLedger(t, dbm.NewMemDB())
	require.False(t, a.Initialized())

	cfg := DefaultGenesisConfig()
	cfg.ChainID = "other-chain"
	_, err := a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.ErrorIs(t, err, types.ErrInvalidGenesis)
	require.False(t, a.Initialized())

	cfg.ChainID = testChainID
	receipt, err := a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.NoError(t, err)
	require.Equal(t, int64(1), receipt.Height)
	require.Equal(t, types.PhaseJoin, receipt.Phase)
	require.NotEmpty(t, receipt.AppHash)
	require.True(t, a.Initialized())

	_, err = a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.ErrorIs(t, err, types.ErrInvalidGenesis)
	require.Equal(t, int64(1), a.LastCommit().Version)
}

func TestDeliverBeforeGenesis(t *testing.T) {
	a := newLedger(t, dbm.NewMemDB())
	alice := newMember(t)

	_, err := a.Deliver(alice.request(t, types.TypeMsgJoin, nil))
	require.ErrorIs(t, err, types.ErrNotInitialized)

	_, err = a.Transcript(0)
	require.ErrorIs(t, err, types.ErrNotInitialized)
}

func TestNonceTTLMustExceedTimestampWindow(t *testing.T) {
	_, err := NewCeremonyApp(log.NewNopLogger(), dbm.NewMemDB(), testChainID, WithNonceTTL(60))
	require.Error(t, err)

	_, err = NewCeremonyApp(log.NewNopLogger(), dbm.NewMemDB(), "")
	require.Error(t, err)
}

func TestTwoPartyCeremonyThroughLedger(t *testing.T) {
	a := setupLedger(t)
	alice, bob := newMember(t), newMember(t)
	commitA, commitB := []byte("alice-commitment"), []byte("bob-commitment")

	receipt := alice.deliver(t, a, types.TypeMsgJoin, nil)
	require.Equal(t, int64(2), receipt.Height)
	require.Equal(t, types.PhaseJoin, receipt.Phase)

	var joined types.MsgJoinResponse
	require.NoError(t, json.Unmarshal(receipt.Result, &joined))
	require.Equal(t, alice.id, joined.Participant.Identity)
	require.Equal(t, types.RoleCoordinator, joined.Participant.Role)

	found := false
	for _, ev := range receipt.Events {
		if ev.Type == types.EventTypeCeremonyJoined {
			found = true
		}
	}
	require.True(t, found, "join receipt carries the joined event")

	bob.deliver(t, a, types.TypeMsgJoin, nil)
	receipt = alice.deliver(t, a, types.TypeMsgStart, nil)
	require.Equal(t, types.PhaseCommit, receipt.Phase)

	receipt = alice.deliver(t, a, types.TypeMsgCommit, withCommitment(commitA))
	require.Equal(t, types.PhaseCommit, receipt.Phase)
	receipt = bob.deliver(t, a, types.TypeMsgCommit, withCommitment(commitB))
	require.Equal(t, types.PhaseReveal, receipt.Phase)

	receipt = alice.deliver(t, a, types.TypeMsgPublishReveal, withReveal([]byte("alice-data"), commitA))
	require.Equal(t, types.PhaseReveal, receipt.Phase)
	receipt = bob.deliver(t, a, types.TypeMsgPublishReveal, withReveal([]byte("bob-data"), commitB))
	require.Equal(t, types.PhaseComplete, receipt.Phase)
	require.Equal(t, int64(8), receipt.Height)

	transcript, err := a.Transcript(0)
	require.NoError(t, err)
	require.True(t, transcript.Audit.Valid, "%v", transcript.Audit.Issues)
	require.Equal(t, types.PhaseComplete, transcript.Transcript.Phase)
	require.Len(t, transcript.Transcript.Participants, 2)

	msg, broken, err := a.CheckInvariants(0)
	require.NoError(t, err)
	require.False(t, broken, msg)
}

func TestRejectedRequestChangesNothing(t *testing.T) {
	a := setupLedger(t)
	alice, bob := newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)
	bob.deliver(t, a, types.TypeMsgJoin, nil)

	before := a.LastCommit()
	nonceBefore, err := a.Nonce(bob.id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonceBefore)

	// commit during Join
	_, err = a.Deliver(bob.request(t, types.TypeMsgCommit, withCommitment([]byte("early"))))
	require.ErrorIs(t, err, types.ErrWrongPhase)

	// start by a non-coordinator
	_, err = a.Deliver(bob.request(t, types.TypeMsgStart, nil))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.Equal(t, before, a.LastCommit())
	nonceAfter, err := a.Nonce(bob.id)
	require.NoError(t, err)
	require.Equal(t, nonceBefore, nonceAfter, "rejected requests consume no nonce")

	// the same nonce is still usable
	bob.nonce = nonceAfter
	_, err = a.Deliver(bob.request(t, types.TypeMsgJoin, nil))
	require.ErrorIs(t, err, types.ErrAlreadyRegistered)
}

func TestReplayIsRejected(t *testing.T) {
	a := setupLedger(t)
	alice := newMember(t)

	req := alice.request(t, types.TypeMsgJoin, nil)
	_, err := a.Deliver(req)
	require.NoError(t, err)
	height := a.LastCommit().Version

	_, err = a.Deliver(req)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrInvalidNonce), "got %v", err)
	require.Equal(t, height, a.LastCommit().Version)
}

func TestForgedSenderIsRejected(t *testing.T) {
	a := setupLedger(t)
	alice, mallory := newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)

	// mallory signs with their own key but claims to be alice
	req := mallory.request(t, types.TypeMsgStart, nil)
	req.Sender = alice.id
	_, err := a.Deliver(req)
	require.ErrorIs(t, err, types.ErrInvalidSignature)

	_, err = a.Deliver(nil)
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	wrongChain := alice.request(t, types.TypeMsgStart, func(r *types.SignedRequest) { r.ChainID = "elsewhere" })
	_, err = a.Deliver(wrongChain)
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestHistoricTranscripts(t *testing.T) {
	a := setupLedger(t)
	alice, bob := newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil) // height 2
	bob.deliver(t, a, types.TypeMsgJoin, nil)   // height 3
	alice.deliver(t, a, types.TypeMsgStart, nil) // height 4

	tests := []struct {
		height       int64
		phase        types.Phase
		participants int
	}{
		{1, types.PhaseJoin, 0},
		{2, types.PhaseJoin, 1},
		{3, types.PhaseJoin, 2},
		{4, types.PhaseCommit, 2},
		{0, types.PhaseCommit, 2},
	}
	for _, tc := range tests {
		resp, err := a.Transcript(tc.height)
		require.NoError(t, err, "height %d", tc.height)
		require.Equal(t, tc.phase, resp.Transcript.Phase, "height %d", tc.height)
		require.Len(t, resp.Transcript.Participants, tc.participants, "height %d", tc.height)
		require.True(t, resp.Audit.Valid, "height %d", tc.height)
	}

	for _, h := range []int64{-1, 5, 100} {
		_, err := a.Transcript(h)
		require.ErrorIs(t, err, types.ErrInvalidHeight, "height %d", h)
	}

	err := a.Query(2, func(ctx sdk.Context) error {
		require.Equal(t, int64(2), ctx.BlockHeight())
		require.False(t, a.CeremonyKeeper.IsParticipant(ctx, bob.id))
		require.True(t, a.CeremonyKeeper.IsCoordinator(ctx, alice.id))
		return nil
	})
	require.NoError(t, err)
}

func TestAppHashChangesWithEveryCommit(t *testing.T) {
	a := setupLedger(t)
	seen := map[string]int64{cmtbytes.HexBytes(a.LastCommit().Hash).String(): 1}

	for i := 0; i < 3; i++ {
		m := newMember(t)
		receipt := m.deliver(t, a, types.TypeMsgJoin, nil)
		key := receipt.AppHash.String()
		_, dup := seen[key]
		require.False(t, dup, "app hash repeated at height %d", receipt.Height)
		seen[key] = receipt.Height
	}
}

func TestLedgerReopensAtLatestHeight(t *testing.T) {
	db := dbm.NewMemDB()
	a := newLedger(t, db)
	cfg := DefaultGenesisConfig()
	cfg.ChainID = testChainID
	_, err := a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.NoError(t, err)

	alice, bob := newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)
	bob.deliver(t, a, types.TypeMsgJoin, nil)
	last := a.LastCommit()
	before, err := a.Transcript(0)
	require.NoError(t, err)

	reopened := newLedger(t, db)
	require.True(t, reopened.Initialized())
	require.Equal(t, last, reopened.LastCommit())

	after, err := reopened.Transcript(0)
	require.NoError(t, err)
	require.Equal(t, before.Transcript, after.Transcript)

	// nonces survive the restart
	n, err := reopened.Nonce(alice.id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)
	alice.deliver(t, reopened, types.TypeMsgStart, nil)
}

func TestHistoricReadsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	open := func() *CeremonyApp {
		db, err := dbm.NewDB("ledger", dbm.GoLevelDBBackend, dir)
		require.NoError(t, err)
		return newLedger(t, db)
	}

	a := open()
	cfg := DefaultGenesisConfig()
	cfg.ChainID = testChainID
	cfg.GenesisTime = genesisTime
	_, err := a.InitGenesis(NewGenesisDocFromConfig(cfg))
	require.NoError(t, err)
	alice := newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)
	require.NoError(t, a.Close())

	reopened := open()
	defer reopened.Close()
	require.Equal(t, int64(2), reopened.LastCommit().Version)

	genesis, err := reopened.Transcript(1)
	require.NoError(t, err)
	require.Equal(t, types.PhaseJoin, genesis.Transcript.Phase)
	require.Empty(t, genesis.Transcript.Participants)
	require.True(t, genesis.Audit.Valid)

	err = reopened.Query(1, func(ctx sdk.Context) error {
		require.Equal(t, nonce.SchemaVersion, reopened.NonceManager.StoredSchemaVersion(ctx))
		require.Zero(t, reopened.NonceManager.CurrentNonce(ctx, alice.id))
		return nil
	})
	require.NoError(t, err)

	latest, err := reopened.Transcript(2)
	require.NoError(t, err)
	require.Len(t, latest.Transcript.Participants, 1)
}

func TestGaugesTrackCommittedStateOnly(t *testing.T) {
	a := setupLedger(t)
	gauges := keeper.NewCeremonyMetrics()
	require.Equal(t, float64(types.PhaseJoin), testutil.ToFloat64(gauges.CurrentPhase))
	require.Zero(t, testutil.ToFloat64(gauges.Participants))

	alice, bob, carol := newMember(t), newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)
	bob.deliver(t, a, types.TypeMsgJoin, nil)
	require.Equal(t, float64(2), testutil.ToFloat64(gauges.Participants))
	height := testutil.ToFloat64(a.metrics.Height)

	// drop bob's commit record so every later request breaks an invariant
	cache := a.cms.CacheMultiStore()
	cache.GetKVStore(a.keys[types.StoreKey]).Delete(types.RecordKey(bob.id))
	cache.Write()
	a.cms.Commit()

	_, err := a.Deliver(carol.request(t, types.TypeMsgJoin, nil))
	require.ErrorIs(t, err, types.ErrStateCorruption)
	require.Equal(t, float64(2), testutil.ToFloat64(gauges.Participants))
	require.Equal(t, float64(types.PhaseJoin), testutil.ToFloat64(gauges.CurrentPhase))
	require.Equal(t, height, testutil.ToFloat64(a.metrics.Height))
}

func TestPayloadLimitsAreEnforced(t *testing.T) {
	a := setupLedger(t, WithMaxRequestBytes(32))
	alice, bob := newMember(t), newMember(t)
	alice.deliver(t, a, types.TypeMsgJoin, nil)
	bob.deliver(t, a, types.TypeMsgJoin, nil)
	alice.deliver(t, a, types.TypeMsgStart, nil)

	_, err := a.Deliver(alice.request(t, types.TypeMsgCommit, withCommitment(make([]byte, 33))))
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = a.Deliver(alice.request(t, types.TypeMsgCommit, withCommitment(nil)))
	require.ErrorIs(t, err, types.ErrEmptyCommitment)
}
