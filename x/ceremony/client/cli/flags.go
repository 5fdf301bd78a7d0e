package cli

// Flag constants for ceremony CLI commands
const (
	// Connection flags
	FlagNode    = "node"
	FlagTimeout = "timeout"

	// Signing flags
	FlagFrom           = "from"
	FlagKeyringBackend = "keyring-backend"
	FlagChainID        = "chain-id"
	FlagNonce          = "nonce"

	// Payload flags
	FlagCommitment = "commitment"
	FlagRevealKey  = "reveal-key"

	// Query flags
	FlagHeight = "height"
	FlagLimit  = "limit"
	FlagOffset = "offset"

	// FlagHome matches the root command's home flag
	FlagHome = "home"
)

const (
	DefaultNode           = "http://localhost:1317"
	DefaultKeyringBackend = "test"
)
