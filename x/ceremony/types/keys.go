package types

import (
	"encoding/binary"
)

const (
	// ModuleName defines the module name
	ModuleName = "ceremony"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// AuthStoreKey is the store holding per-identity request nonces
	AuthStoreKey = "auth"

	// Bech32Prefix is the human readable part of participant addresses
	Bech32Prefix = "distmpc"
)

var (
	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x01}

	// PhaseKey is the key for the current ceremony phase
	PhaseKey = []byte{0x02}

	// ParticipantCountKey is the key for the number of registered participants
	ParticipantCountKey = []byte{0x03}

	// ParticipantKeyPrefix is the prefix for participants ordered by join index
	ParticipantKeyPrefix = []byte{0x04}

	// ParticipantIndexKeyPrefix is the prefix mapping an identity to its join index
	ParticipantIndexKeyPrefix = []byte{0x05}

	// RecordKeyPrefix is the prefix for commit records keyed by identity
	RecordKeyPrefix = []byte{0x06}
)

// ParticipantKey returns the store key for the participant at the given join index.
// Indices are big-endian so that prefix iteration yields join order.
func ParticipantKey(index uint64) []byte {
	return append(append([]byte{}, ParticipantKeyPrefix...), EncodeIndex(index)...)
}

// ParticipantIndexKey returns the store key for an identity's join index.
func ParticipantIndexKey(identity string) []byte {
	return append(append([]byte{}, ParticipantIndexKeyPrefix...), []byte(identity)...)
}

// RecordKey returns the store key for an identity's commit record.
func RecordKey(identity string) []byte {
	return append(append([]byte{}, RecordKeyPrefix...), []byte(identity)...)
}

// EncodeIndex encodes a uint64 as 8 big-endian bytes.
func EncodeIndex(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

// DecodeIndex decodes 8 big-endian bytes, returning 0 for malformed input.
func DecodeIndex(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}
