package app

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

const (
	// Bech32PrefixAccAddr defines the Bech32 prefix of a participant address
	Bech32PrefixAccAddr = types.Bech32Prefix
	// Bech32PrefixAccPub defines the Bech32 prefix of a participant public key
	Bech32PrefixAccPub = types.Bech32Prefix + "pub"

	// CoinType is the SLIP44 coin type used for key derivation
	CoinType = 118

	// DefaultChainID is used by init when no chain id is given.
	DefaultChainID = "distmpc-1"
)

// SetConfig sets the address configuration for the ceremony ledger. It is
// safe to call more than once; only the first call takes effect.
func SetConfig() {
	config := sdk.GetConfig()
	if config.GetBech32AccountAddrPrefix() == Bech32PrefixAccAddr {
		return
	}
	config.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
	config.SetCoinType(CoinType)
	config.Seal()
}
