package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/api"
)

// MakeKeyringCodec returns a codec able to decode keyring records.
func MakeKeyringCodec() codec.Codec {
	registry := codectypes.NewInterfaceRegistry()
	cryptocodec.RegisterInterfaces(registry)
	return codec.NewProtoCodec(registry)
}

// NewKeyring opens the keyring under home with the given backend.
func NewKeyring(serviceName, backend, home string, in io.Reader) (keyring.Keyring, error) {
	return keyring.New(serviceName, backend, home, in, MakeKeyringCodec())
}

// KeyringFromCmd opens the keyring selected by the command's flags.
func KeyringFromCmd(cmd *cobra.Command, serviceName string) (keyring.Keyring, error) {
	home, _ := cmd.Flags().GetString(FlagHome)
	backend, _ := cmd.Flags().GetString(FlagKeyringBackend)
	if backend == "" {
		backend = DefaultKeyringBackend
	}
	return NewKeyring(serviceName, backend, home, cmd.InOrStdin())
}

// ClientFromCmd returns an API client for the --node flag.
func ClientFromCmd(cmd *cobra.Command) *api.Client {
	node, _ := cmd.Flags().GetString(FlagNode)
	if node == "" {
		node = DefaultNode
	}
	timeout, _ := cmd.Flags().GetDuration(FlagTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return api.NewClient(node, timeout)
}

// AddNodeFlags adds the flags every networked command needs.
func AddNodeFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagNode, DefaultNode, "ledger API endpoint")
	cmd.Flags().Duration(FlagTimeout, 30*time.Second, "request timeout")
}

// AddQueryFlagsToCmd adds the common query flags.
func AddQueryFlagsToCmd(cmd *cobra.Command) {
	AddNodeFlags(cmd)
	cmd.Flags().Int64(FlagHeight, 0, "read at this ledger height (0 for latest)")
}

// AddTxFlagsToCmd adds the common signing flags.
func AddTxFlagsToCmd(cmd *cobra.Command) {
	AddNodeFlags(cmd)
	cmd.Flags().String(FlagFrom, "", "name of the signing key in the keyring")
	cmd.Flags().String(FlagKeyringBackend, DefaultKeyringBackend, "keyring backend (os|file|test|memory)")
	cmd.Flags().String(FlagChainID, "", "chain id to sign for (defaults to the server's)")
	cmd.Flags().Uint64(FlagNonce, 0, "request nonce (defaults to the next nonce)")
	_ = cmd.MarkFlagRequired(FlagFrom)
}

// PrintJSON writes v as indented JSON to the command's output.
func PrintJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}

// ParseBytes reads a payload given as hex (0x prefixed or bare) or, when the
// value starts with @, from a file.
func ParseBytes(value string) ([]byte, error) {
	switch {
	case strings.HasPrefix(value, "@"):
		return os.ReadFile(strings.TrimPrefix(value, "@"))
	case value == "":
		return nil, nil
	default:
		bz, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("payload must be hex or @file: %w", err)
		}
		return bz, nil
	}
}
