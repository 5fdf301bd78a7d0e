// Package nonce provides per-sender request nonces for replay protection of
// signed requests.
package nonce

import (
	"encoding/binary"
	"fmt"
	"strings"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// NoncePrefix is the prefix for the last accepted nonce of each sender
	NoncePrefix = "nonce"
	// NonceTimestampPrefix is the prefix for the time each sender's nonce was last accepted
	NonceTimestampPrefix = "nonce_ts"

	// MaxTimestampAge is the maximum age of a request timestamp (24 hours in seconds)
	MaxTimestampAge = int64(86400)
	// MaxFutureDrift is the maximum allowed clock drift into the future (5 minutes in seconds)
	MaxFutureDrift = int64(300)
	// DefaultNonceTTLSeconds is the default TTL for idle sender nonces (7 days).
	// It must stay above MaxTimestampAge or a pruned nonce could be replayed.
	DefaultNonceTTLSeconds = int64(604800)
	// DefaultPruneBatch bounds the work done by a single prune call.
	DefaultPruneBatch = 100

	// SchemaVersionKey holds the layout version of the nonce store. It is
	// written at genesis so the store is never empty at a committed height.
	SchemaVersionKey = "schema_version"
	// SchemaVersion is the current nonce store layout.
	SchemaVersion = uint64(1)
)

// ErrorProvider allows callers to provide their own error types while using
// the shared nonce logic.
type ErrorProvider interface {
	// InvalidNonceError returns an error for invalid nonce with the given message
	InvalidNonceError(msg string) error
	// InvalidRequestError returns an error for a malformed or stale request
	InvalidRequestError(msg string) error
}

// Manager validates request nonces. Each sender's nonce must strictly
// increase, and each request timestamp must be close to the current time.
type Manager struct {
	storeKey      storetypes.StoreKey
	errorProvider ErrorProvider
}

// NewManager creates a nonce manager persisting into storeKey.
func NewManager(storeKey storetypes.StoreKey, errorProvider ErrorProvider) *Manager {
	return &Manager{
		storeKey:      storeKey,
		errorProvider: errorProvider,
	}
}

func encodeUint64(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

func decodeUint64(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func nonceKey(sender string) []byte {
	return []byte(fmt.Sprintf("%s/%s", NoncePrefix, sender))
}

func nonceTimestampKey(sender string) []byte {
	return []byte(fmt.Sprintf("%s/%s", NonceTimestampPrefix, sender))
}

// senderFromKey parses the sender out of a prefixed key. Returns "" if the
// key does not belong to prefix.
func senderFromKey(key []byte, prefix string) string {
	sender, ok := strings.CutPrefix(string(key), prefix+"/")
	if !ok || sender == "" || strings.Contains(sender, "/") {
		return ""
	}
	return sender
}

// InitGenesis stamps the store with the current schema version.
func (m *Manager) InitGenesis(ctx sdk.Context) {
	ctx.KVStore(m.storeKey).Set([]byte(SchemaVersionKey), encodeUint64(SchemaVersion))
}

// StoredSchemaVersion returns the schema version written at genesis, or zero.
func (m *Manager) StoredSchemaVersion(ctx sdk.Context) uint64 {
	return decodeUint64(ctx.KVStore(m.storeKey).Get([]byte(SchemaVersionKey)))
}

// CurrentNonce returns the last nonce accepted from sender, or zero.
func (m *Manager) CurrentNonce(ctx sdk.Context, sender string) uint64 {
	return decodeUint64(ctx.KVStore(m.storeKey).Get(nonceKey(sender)))
}

// ValidateRequestNonce validates a request nonce and timestamp to prevent replay.
// It enforces:
// 1. Sender must not be empty or contain '/'
// 2. Nonce must be greater than zero
// 3. Timestamp must be positive
// 4. Timestamp must be within 24 hours of the context time
// 5. Timestamp must not be more than 5 minutes in the future
// 6. Nonce must be strictly greater than the last accepted nonce for the sender
//
// After successful validation, the new nonce is stored.
func (m *Manager) ValidateRequestNonce(ctx sdk.Context, sender string, nonce uint64, timestamp int64) error {
	if sender == "" || strings.Contains(sender, "/") {
		return m.errorProvider.InvalidRequestError(fmt.Sprintf("invalid sender %q", sender))
	}
	if nonce == 0 {
		return m.errorProvider.InvalidNonceError("nonce must be greater than zero")
	}
	if timestamp <= 0 {
		return m.errorProvider.InvalidRequestError("timestamp must be positive")
	}

	currentTime := ctx.BlockTime().Unix()
	timeDiff := currentTime - timestamp

	if timeDiff > MaxTimestampAge {
		return m.errorProvider.InvalidRequestError(fmt.Sprintf(
			"request timestamp too old: %d seconds ago (max: %d seconds)",
			timeDiff, MaxTimestampAge))
	}

	if timeDiff < -MaxFutureDrift {
		return m.errorProvider.InvalidRequestError(fmt.Sprintf(
			"request timestamp too far in future: %d seconds ahead (max: %d seconds)",
			-timeDiff, MaxFutureDrift))
	}

	stored := m.CurrentNonce(ctx, sender)
	if nonce <= stored {
		return m.errorProvider.InvalidNonceError(fmt.Sprintf(
			"replay detected: nonce %d not greater than stored %d",
			nonce, stored))
	}

	store := ctx.KVStore(m.storeKey)
	store.Set(nonceKey(sender), encodeUint64(nonce))
	store.Set(nonceTimestampKey(sender), encodeUint64(uint64(currentTime)))
	return nil
}

// PruneExpiredNonces removes nonces of senders idle for longer than ttlSeconds.
// At most maxPrunePerCall senders are removed per call.
func (m *Manager) PruneExpiredNonces(ctx sdk.Context, ttlSeconds int64, maxPrunePerCall int) (int, error) {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultNonceTTLSeconds
	}
	if ttlSeconds <= MaxTimestampAge {
		return 0, fmt.Errorf("nonce ttl %ds must exceed max timestamp age %ds", ttlSeconds, MaxTimestampAge)
	}
	if maxPrunePerCall <= 0 {
		maxPrunePerCall = DefaultPruneBatch
	}

	store := ctx.KVStore(m.storeKey)
	cutoffTime := ctx.BlockTime().Unix() - ttlSeconds

	pruned := 0
	keysToDelete := make([][]byte, 0, maxPrunePerCall*2)

	iterator := storetypes.KVStorePrefixIterator(store, []byte(NonceTimestampPrefix+"/"))
	defer iterator.Close()

	for ; iterator.Valid() && pruned < maxPrunePerCall; iterator.Next() {
		if int64(decodeUint64(iterator.Value())) > cutoffTime {
			continue
		}
		sender := senderFromKey(iterator.Key(), NonceTimestampPrefix)
		if sender == "" {
			continue
		}
		keysToDelete = append(keysToDelete, nonceKey(sender), iterator.Key())
		pruned++
	}

	for _, key := range keysToDelete {
		store.Delete(key)
	}

	return pruned, nil
}
