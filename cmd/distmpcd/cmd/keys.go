package cmd

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/client/input"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/go-bip39"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

const (
	flagRecover        = "recover"
	flagMnemonicLength = "mnemonic-length"
	flagNoBackup       = "no-backup"
	flagAccount        = "account"
	flagIndex          = "index"
	flagYes            = "yes"
)

// KeysCmd returns the keys command. Keys sign ceremony requests; the
// identity printed for each key is what the ledger records.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage participant signing keys with BIP39 mnemonic support",
		Long: `Keys manages the local keystore holding participant signing keys.

Each key is a secp256k1 key derived from a BIP39 mnemonic. Its identity, the
bech32 address of the public key, is how the ceremony ledger refers to the
participant.`,
	}

	cmd.PersistentFlags().String(cli.FlagKeyringBackend, cli.DefaultKeyringBackend, "keyring backend (os|file|test|memory)")

	cmd.AddCommand(
		addKeyCmd(),
		listKeysCmd(),
		showKeyCmd(),
		deleteKeyCmd(),
	)
	return cmd
}

func addKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a new key, or recover one with --recover",
		Long: `Add a new key to the keyring from a freshly generated BIP39 mnemonic.

WARNING: Keep the mnemonic in a secure location. Anyone holding it can sign
ceremony requests as this participant.

Examples:
  distmpcd keys add alice                       # 24-word mnemonic
  distmpcd keys add alice --mnemonic-length 12
  distmpcd keys add alice --recover             # read a mnemonic from stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := cli.KeyringFromCmd(cmd, app.Name)
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("argument 'name' cannot be empty")
			}

			account, _ := cmd.Flags().GetUint32(flagAccount)
			index, _ := cmd.Flags().GetUint32(flagIndex)

			var mnemonic string
			if recoverExisting, _ := cmd.Flags().GetBool(flagRecover); recoverExisting {
				mnemonic, err = readMnemonic(cmd)
			} else {
				length, _ := cmd.Flags().GetInt(flagMnemonicLength)
				mnemonic, err = newMnemonic(length)
			}
			if err != nil {
				return err
			}

			hdPath := hd.CreateHDPath(app.CoinType, account, index)
			record, err := kr.NewAccount(name, mnemonic, keyring.DefaultBIP39Passphrase, hdPath.String(), hd.Secp256k1)
			if err != nil {
				return fmt.Errorf("failed to create key: %w", err)
			}
			if err := printKey(cmd, record); err != nil {
				return err
			}

			recovered, _ := cmd.Flags().GetBool(flagRecover)
			noBackup, _ := cmd.Flags().GetBool(flagNoBackup)
			if recovered || noBackup {
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n**IMPORTANT** Write this mnemonic phrase in a safe place.\n")
			fmt.Fprintf(out, "It is the only way to recover this participant key.\n\n")
			fmt.Fprintf(out, "%s\n", mnemonic)
			return nil
		},
	}

	cmd.Flags().Bool(flagRecover, false, "recover the key from an existing mnemonic read from stdin")
	cmd.Flags().Int(flagMnemonicLength, 24, "mnemonic length (12 or 24 words)")
	cmd.Flags().Bool(flagNoBackup, false, "do not print the generated mnemonic")
	cmd.Flags().Uint32(flagAccount, 0, "account number for HD derivation")
	cmd.Flags().Uint32(flagIndex, 0, "address index number for HD derivation")
	return cmd
}

// newMnemonic generates a 12 or 24 word mnemonic from crypto/rand entropy.
func newMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", fmt.Errorf("mnemonic length must be 12 or 24 words")
	}

	entropy := make([]byte, bits/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate secure entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// readMnemonic reads and normalizes a mnemonic from the command's input.
func readMnemonic(cmd *cobra.Command) (string, error) {
	buf := bufio.NewReader(cmd.InOrStdin())
	raw, err := input.GetString("Enter your bip39 mnemonic", buf)
	if err != nil {
		return "", fmt.Errorf("failed to read mnemonic: %w", err)
	}

	words := strings.Fields(raw)
	if len(words) != 12 && len(words) != 24 {
		return "", fmt.Errorf("invalid mnemonic length: expected 12 or 24 words, got %d", len(words))
	}
	mnemonic := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("invalid mnemonic: checksum failed")
	}
	return mnemonic, nil
}

func listKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kr, err := cli.KeyringFromCmd(cmd, app.Name)
			if err != nil {
				return err
			}

			records, err := kr.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No keys found.\n")
				return nil
			}
			for _, record := range records {
				if err := printKey(cmd, record); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func showKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a key's identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := cli.KeyringFromCmd(cmd, app.Name)
			if err != nil {
				return err
			}

			record, err := kr.Key(args[0])
			if err != nil {
				return fmt.Errorf("key %s not found: %w", args[0], err)
			}
			return printKey(cmd, record)
		},
	}
}

func deleteKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a key from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := cli.KeyringFromCmd(cmd, app.Name)
			if err != nil {
				return err
			}

			if _, err := kr.Key(args[0]); err != nil {
				return fmt.Errorf("key %s not found: %w", args[0], err)
			}

			if skip, _ := cmd.Flags().GetBool(flagYes); !skip {
				buf := bufio.NewReader(cmd.InOrStdin())
				ok, err := input.GetConfirmation("Key reference will be deleted. Continue?", buf, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := kr.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key deleted\n")
			return nil
		},
	}

	cmd.Flags().BoolP(flagYes, "y", false, "skip confirmation prompt")
	return cmd
}

func printKey(cmd *cobra.Command, record *keyring.Record) error {
	pub, err := record.GetPubKey()
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}
	identity, err := types.IdentityFromPubKey(pub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "- name: %s\n", record.Name)
	fmt.Fprintf(out, "  identity: %s\n", identity)
	fmt.Fprintf(out, "  pubkey: %X\n", pub.Bytes())
	return nil
}
