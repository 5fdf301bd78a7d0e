// Package app provides the distmpc ceremony ledger.
//
// The ledger hosts the ceremony keeper on a versioned IAVL multistore. Every
// accepted request is validated by the ante chain, executed by the ceremony
// msg server and committed as one new height, so the transcript is
// tamper-evident and readable at any past height.
//
// Key features:
//   - Single writer: requests are serialized by a mutex
//   - Signed request envelopes with per-sender nonces
//   - Rejected requests leave no trace, not even a consumed nonce
//   - Historic reads against any committed height (pruning disabled)
//   - Optional invariant check after every request
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	pruningtypes "cosmossdk.io/store/pruning/types"
	storetypes "cosmossdk.io/store/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/app/ante"
	"github.com/paw-chain/distmpc/app/telemetry"
	"github.com/paw-chain/distmpc/x/ceremony/keeper"
	"github.com/paw-chain/distmpc/x/ceremony/types"
	"github.com/paw-chain/distmpc/x/shared/nonce"
	"github.com/paw-chain/distmpc/x/shared/upkeep"
)

const (
	// Name is the application name
	Name = "distmpc"
)

// DefaultNodeHome default home directory for the ledger daemon
var DefaultNodeHome string

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	DefaultNodeHome = filepath.Join(userHomeDir, ".distmpc")
}

// Receipt describes a committed request.
type Receipt struct {
	Height  int64             `json:"height"`
	AppHash cmtbytes.HexBytes `json:"app_hash"`
	Phase   types.Phase       `json:"phase"`
	Events  sdk.StringEvents  `json:"events,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
}

// Option configures a CeremonyApp.
type Option func(*CeremonyApp)

// WithClock overrides the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *CeremonyApp) { a.now = now }
}

// WithInvariantChecks toggles running all ceremony invariants after every request.
func WithInvariantChecks(enabled bool) Option {
	return func(a *CeremonyApp) { a.checkInvariants = enabled }
}

// WithNonceTTL sets how long an idle sender's nonce is kept, in seconds.
func WithNonceTTL(seconds int64) Option {
	return func(a *CeremonyApp) { a.nonceTTL = seconds }
}

// WithMaxRequestBytes caps the combined payload of a single request.
func WithMaxRequestBytes(n int) Option {
	return func(a *CeremonyApp) { a.maxRequestBytes = n }
}

// CeremonyApp is the ceremony ledger.
type CeremonyApp struct {
	mu sync.RWMutex

	logger  log.Logger
	db      dbm.DB
	cms     storetypes.CommitMultiStore
	keys    map[string]*storetypes.KVStoreKey
	chainID string

	CeremonyKeeper *keeper.Keeper
	NonceManager   *nonce.Manager

	msgServer   types.MsgServer
	queryServer types.QueryServer
	anteHandler ante.RequestHandler

	now             func() time.Time
	checkInvariants bool
	nonceTTL        int64
	maxRequestBytes int
	metrics         *LedgerMetrics
}

// NewCeremonyApp opens the ledger stored in db at its latest height.
func NewCeremonyApp(logger log.Logger, db dbm.DB, chainID string, opts ...Option) (*CeremonyApp, error) {
	if chainID == "" {
		return nil, fmt.Errorf("chain id is required")
	}

	app := &CeremonyApp{
		logger:          logger.With("module", "ledger"),
		db:              db,
		chainID:         chainID,
		now:             time.Now,
		checkInvariants: true,
		nonceTTL:        nonce.DefaultNonceTTLSeconds,
		maxRequestBytes: ante.DefaultMaxRequestBytes,
		metrics:         NewLedgerMetrics(),
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.nonceTTL <= nonce.MaxTimestampAge {
		return nil, fmt.Errorf("nonce ttl %ds must exceed the request timestamp window %ds", app.nonceTTL, nonce.MaxTimestampAge)
	}

	app.keys = storetypes.NewKVStoreKeys(types.StoreKey, types.AuthStoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.SetPruning(pruningtypes.NewPruningOptions(pruningtypes.PruningNothing))
	for _, key := range app.keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	app.cms = cms

	app.CeremonyKeeper = keeper.NewKeeper(types.ModuleCdc, app.keys[types.StoreKey])
	app.NonceManager = nonce.NewManager(app.keys[types.AuthStoreKey], types.NonceErrors{})
	app.msgServer = keeper.NewMsgServerImpl(*app.CeremonyKeeper)
	app.queryServer = keeper.NewQueryServerImpl(*app.CeremonyKeeper)

	anteHandler, err := ante.NewAnteHandler(ante.HandlerOptions{
		NonceManager:    app.NonceManager,
		MaxRequestBytes: app.maxRequestBytes,
	})
	if err != nil {
		return nil, err
	}
	app.anteHandler = anteHandler

	if version := cms.LastCommitID().Version; version > 0 {
		ctx := app.newContext(cms.CacheMultiStore(), version)
		app.recordCommit(version, app.CeremonyKeeper.GetPhase(ctx), app.CeremonyKeeper.ParticipantCount(ctx))
	} else {
		app.metrics.Height.Set(0)
	}
	return app, nil
}

// ChainID returns the chain id requests must be signed for.
func (a *CeremonyApp) ChainID() string {
	return a.chainID
}

// QueryServer returns the ceremony query server. Its methods must be called
// with a context obtained from Query.
func (a *CeremonyApp) QueryServer() types.QueryServer {
	return a.queryServer
}

// LastCommit returns the id of the latest committed height.
func (a *CeremonyApp) LastCommit() storetypes.CommitID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cms.LastCommitID()
}

// Initialized reports whether genesis has been committed.
func (a *CeremonyApp) Initialized() bool {
	return a.LastCommit().Version > 0
}

// Close releases the underlying database.
func (a *CeremonyApp) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

func (a *CeremonyApp) newContext(ms storetypes.MultiStore, height int64) sdk.Context {
	header := cmtproto.Header{
		ChainID: a.chainID,
		Height:  height,
		Time:    a.now().UTC(),
	}
	return sdk.NewContext(ms, header, false, a.logger)
}

// InitGenesis loads the genesis transcript and commits it as height 1.
func (a *CeremonyApp) InitGenesis(doc GenesisDoc) (Receipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if doc.ChainID != a.chainID {
		return Receipt{}, types.ErrInvalidGenesis.Wrapf("genesis is for chain %q, ledger is %q", doc.ChainID, a.chainID)
	}
	if a.cms.LastCommitID().Version != 0 {
		return Receipt{}, types.ErrInvalidGenesis.Wrap("ledger already initialized")
	}
	if err := doc.Validate(); err != nil {
		return Receipt{}, err
	}

	cache := a.cms.CacheMultiStore()
	ctx := a.newContext(cache, 1).WithBlockTime(doc.GenesisTime)
	if err := a.CeremonyKeeper.InitGenesis(ctx, doc.AppState); err != nil {
		return Receipt{}, err
	}
	// every mounted store must hold data at height 1 or it cannot be
	// loaded at that version after a restart
	a.NonceManager.InitGenesis(ctx)

	phase := a.CeremonyKeeper.GetPhase(ctx)
	participants := a.CeremonyKeeper.ParticipantCount(ctx)
	events := ctx.EventManager().Events()
	cache.Write()
	commit := a.cms.Commit()
	a.recordCommit(commit.Version, phase, participants)

	a.logger.Info("ledger initialized from genesis",
		"chain_id", a.chainID,
		"phase", phase.String(),
		"participants", len(doc.AppState.Participants),
		"app_hash", cmtbytes.HexBytes(commit.Hash).String(),
	)

	return Receipt{
		Height:  commit.Version,
		AppHash: commit.Hash,
		Phase:   phase,
		Events:  sdk.StringifyEvents(events.ToABCIEvents()),
	}, nil
}

// Deliver authenticates req, executes it and commits the result as a new
// height. A rejected request changes nothing, including the sender's nonce.
func (a *CeremonyApp) Deliver(req *types.SignedRequest) (receipt Receipt, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	action, sender := "unknown", ""
	if req != nil {
		action, sender = req.Action, req.Sender
	}
	start := time.Now()
	defer func() {
		a.metrics.Requests.WithLabelValues(action, resultLabel(err)).Inc()
		a.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}()

	latest := a.cms.LastCommitID().Version
	if latest == 0 {
		return Receipt{}, types.ErrNotInitialized
	}

	_, span := telemetry.StartRequestSpan(context.Background(), action, sender, latest+1)
	defer func() { telemetry.EndSpan(span, err) }()

	cache := a.cms.CacheMultiStore()
	ctx := a.newContext(cache, latest+1)

	ctx, err = a.anteHandler(ctx, req)
	if err != nil {
		a.logger.Debug("request rejected by ante handler", "action", action, "sender", sender, "error", err)
		return Receipt{}, err
	}

	result, err := a.dispatch(ctx, req)
	if err != nil {
		return Receipt{}, err
	}

	if a.checkInvariants {
		if msg, broken := keeper.AllInvariants(*a.CeremonyKeeper)(ctx); broken {
			a.logger.Error("invariant broken, request discarded", "action", action, "sender", sender, "invariant", msg)
			return Receipt{}, types.ErrStateCorruption.Wrap(msg)
		}
	}

	a.upkeep(ctx)

	phase := a.CeremonyKeeper.GetPhase(ctx)
	participants := a.CeremonyKeeper.ParticipantCount(ctx)
	events := ctx.EventManager().Events()
	cache.Write()
	commit := a.cms.Commit()
	a.recordCommit(commit.Version, phase, participants)

	a.logger.Info("request committed",
		"action", action,
		"sender", sender,
		"height", commit.Version,
		"phase", phase.String(),
	)

	return Receipt{
		Height:  commit.Version,
		AppHash: commit.Hash,
		Phase:   phase,
		Events:  sdk.StringifyEvents(events.ToABCIEvents()),
		Result:  result,
	}, nil
}

// recordCommit publishes gauges for a state that has just been committed.
func (a *CeremonyApp) recordCommit(height int64, phase types.Phase, participants uint64) {
	a.metrics.Height.Set(float64(height))
	a.CeremonyKeeper.RecordCommittedState(phase, participants)
}

// dispatch routes the request's message to the msg server.
func (a *CeremonyApp) dispatch(ctx sdk.Context, req *types.SignedRequest) (json.RawMessage, error) {
	msg, err := req.Msg()
	if err != nil {
		return nil, err
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	var res interface{}
	switch msg := msg.(type) {
	case *types.MsgJoin:
		res, err = a.msgServer.Join(ctx, msg)
	case *types.MsgStart:
		res, err = a.msgServer.Start(ctx, msg)
	case *types.MsgCommit:
		res, err = a.msgServer.Commit(ctx, msg)
	case *types.MsgPublishReveal:
		res, err = a.msgServer.PublishReveal(ctx, msg)
	default:
		return nil, types.ErrInvalidRequest.Wrapf("unrecognized message type %T", msg)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(res)
}

// upkeep runs housekeeping for an accepted request. Failures are reported but
// never reject the request.
func (a *CeremonyApp) upkeep(ctx sdk.Context) {
	handler := upkeep.NewHandler(ctx, "ledger", func(operation string, severity upkeep.Severity) {
		a.metrics.UpkeepErrors.WithLabelValues(operation, severity.String()).Inc()
	})

	pruned, err := a.NonceManager.PruneExpiredNonces(ctx, a.nonceTTL, nonce.DefaultPruneBatch)
	if handler.WrapError("prune-nonces", upkeep.SeverityLow, err) {
		return
	}
	if pruned > 0 {
		a.metrics.PrunedNonces.Add(float64(pruned))
		a.logger.Debug("pruned idle nonces", "count", pruned)
	}
}

// Query runs fn against the committed state at height. Height 0 is the
// latest height.
func (a *CeremonyApp) Query(height int64, fn func(ctx sdk.Context) error) (err error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	kind := "latest"
	if height != 0 {
		kind = "historic"
	}
	defer func() {
		a.metrics.Queries.WithLabelValues(kind, resultLabel(err)).Inc()
	}()

	latest := a.cms.LastCommitID().Version
	if latest == 0 {
		return types.ErrNotInitialized
	}
	if height == 0 {
		height = latest
	}
	if height < 1 || height > latest {
		return types.ErrInvalidHeight.Wrapf("height %d outside [1, %d]", height, latest)
	}

	_, span := telemetry.StartQuerySpan(context.Background(), height)
	defer func() { telemetry.EndSpan(span, err) }()

	ms, err := a.cms.CacheMultiStoreWithVersion(height)
	if err != nil {
		return types.ErrInvalidHeight.Wrapf("height %d: %s", height, err)
	}
	return fn(a.newContext(ms, height))
}

// Transcript returns the transcript and its audit report at height.
func (a *CeremonyApp) Transcript(height int64) (*types.QueryTranscriptResponse, error) {
	var resp *types.QueryTranscriptResponse
	err := a.Query(height, func(ctx sdk.Context) error {
		var err error
		resp, err = a.queryServer.Transcript(ctx, &types.QueryTranscriptRequest{})
		return err
	})
	return resp, err
}

// Nonce returns the last accepted nonce of sender at the latest height.
func (a *CeremonyApp) Nonce(sender string) (uint64, error) {
	var n uint64
	err := a.Query(0, func(ctx sdk.Context) error {
		n = a.NonceManager.CurrentNonce(ctx, sender)
		return nil
	})
	return n, err
}

// CeremonyStatus returns the current phase and participant count.
func (a *CeremonyApp) CeremonyStatus() (types.Phase, uint64, error) {
	var (
		phase types.Phase
		count uint64
	)
	err := a.Query(0, func(ctx sdk.Context) error {
		phase = a.CeremonyKeeper.GetPhase(ctx)
		count = a.CeremonyKeeper.ParticipantCount(ctx)
		return nil
	})
	return phase, count, err
}

// CheckInvariants runs every ceremony invariant at height.
func (a *CeremonyApp) CheckInvariants(height int64) (string, bool, error) {
	var (
		msg    string
		broken bool
	)
	err := a.Query(height, func(ctx sdk.Context) error {
		msg, broken = keeper.AllInvariants(*a.CeremonyKeeper)(ctx)
		return nil
	})
	return msg, broken, err
}

func resultLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	return types.CategoryOf(err).String()
}
