package cli

import (
	"fmt"
	"time"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// GetTxCmd returns the transaction commands for the ceremony
func GetTxCmd(serviceName string) *cobra.Command {
	ceremonyTxCmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Signed ceremony requests",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	ceremonyTxCmd.AddCommand(
		CmdJoin(serviceName),
		CmdStart(serviceName),
		CmdCommit(serviceName),
		CmdPublishReveal(serviceName),
	)

	return ceremonyTxCmd
}

// CmdJoin returns the command to join the ceremony
func CmdJoin(serviceName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Register the signing key as a ceremony participant",
		Long: `Register the signing key's identity during the Join phase. The first
identity to join becomes the coordinator.

Example:
  $ distmpcd tx join --from alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signAndSubmit(cmd, serviceName, types.TypeMsgJoin, nil)
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdStart returns the command to close the Join phase
func CmdStart(serviceName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Close the Join phase and open the Commit phase (coordinator only)",
		Long: `Close registration and open the Commit phase. Only the coordinator may
start, and only once at least two participants have joined.

Example:
  $ distmpcd tx start --from alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signAndSubmit(cmd, serviceName, types.TypeMsgStart, nil)
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCommit returns the command to record a commitment
func CmdCommit(serviceName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit [commitment]",
		Short: "Record the signer's commitment",
		Long: `Record an opaque commitment during the Commit phase. The commitment is
hex encoded, or read from a file when prefixed with @.

Example:
  $ distmpcd tx commit 0x6d79636f6d6d69746d656e74 --from alice
  $ distmpcd tx commit @commitment.bin --from alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commitment, err := ParseBytes(args[0])
			if err != nil {
				return err
			}
			return signAndSubmit(cmd, serviceName, types.TypeMsgCommit, func(req *types.SignedRequest) error {
				req.Commitment = commitment
				return nil
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdPublishReveal returns the command to publish a reveal
func CmdPublishReveal(serviceName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reveal [reveal-data]",
		Short: "Publish the signer's reveal",
		Long: `Publish reveal data during the Reveal phase. The reveal key must be the
Keccak-256 hash of the commitment recorded earlier: pass the commitment with
--commitment to derive it, or the key itself with --reveal-key.

Example:
  $ distmpcd tx reveal @share.bin --commitment @commitment.bin --from alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ParseBytes(args[0])
			if err != nil {
				return err
			}

			commitmentArg, _ := cmd.Flags().GetString(FlagCommitment)
			keyArg, _ := cmd.Flags().GetString(FlagRevealKey)
			if (commitmentArg == "") == (keyArg == "") {
				return fmt.Errorf("exactly one of --%s or --%s is required", FlagCommitment, FlagRevealKey)
			}

			var key []byte
			if commitmentArg != "" {
				commitment, err := ParseBytes(commitmentArg)
				if err != nil {
					return err
				}
				key = types.RevealKeyFor(commitment)
			} else if key, err = ParseBytes(keyArg); err != nil {
				return err
			}

			return signAndSubmit(cmd, serviceName, types.TypeMsgPublishReveal, func(req *types.SignedRequest) error {
				req.RevealData = data
				req.RevealKey = key
				return nil
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	cmd.Flags().String(FlagCommitment, "", "the committed value, hex or @file; the reveal key is derived from it")
	cmd.Flags().String(FlagRevealKey, "", "the reveal key, hex or @file")
	return cmd
}

// signAndSubmit builds a request for action with the next nonce, signs it
// with the --from key and submits it.
func signAndSubmit(cmd *cobra.Command, serviceName, action string, fill func(*types.SignedRequest) error) error {
	kr, err := KeyringFromCmd(cmd, serviceName)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString(FlagFrom)
	record, err := kr.Key(from)
	if err != nil {
		return fmt.Errorf("key %q not found: %w", from, err)
	}
	pub, err := record.GetPubKey()
	if err != nil {
		return err
	}
	identity, err := types.IdentityFromPubKey(pub)
	if err != nil {
		return err
	}

	apiClient := ClientFromCmd(cmd)
	ctx := cmd.Context()

	state, err := apiClient.Nonce(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}

	chainID, _ := cmd.Flags().GetString(FlagChainID)
	if chainID == "" {
		chainID = state.ChainID
	}
	nonce, _ := cmd.Flags().GetUint64(FlagNonce)
	if nonce == 0 {
		nonce = state.NextNonce
	}

	req := types.NewSignedRequest(action, chainID, nonce, time.Now().Unix())
	if fill != nil {
		if err := fill(req); err != nil {
			return err
		}
	}

	err = req.SignWith(pub, func(msg []byte) ([]byte, error) {
		sig, _, err := kr.Sign(from, msg, signing.SignMode_SIGN_MODE_DIRECT)
		return sig, err
	})
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	receipt, err := apiClient.Submit(ctx, req)
	if err != nil {
		return err
	}
	return PrintJSON(cmd, receipt)
}
