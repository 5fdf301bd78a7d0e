package cmd

import (
	"fmt"
	"time"

	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

const (
	flagOverwrite       = "overwrite"
	flagMinParticipants = "min-participants"
	flagMaxParticipants = "max-participants"
	flagMaxPayloadSize  = "max-payload-size"
	flagGenesisTime     = "genesis-time"
)

// InitCmd returns a command that writes app.toml and an empty-ceremony
// genesis file.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger configuration and genesis files",
		Long: `Initialize the node's app.toml and a genesis file describing an empty
ceremony in the Join phase.

Example:
  distmpcd init --chain-id distmpc-1 --min-participants 3 --home ~/.distmpc
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, _ := cmd.Flags().GetString(cli.FlagHome)
			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)

			genFile := genesisPath(home)
			if !overwrite && cmtos.FileExists(genFile) {
				return fmt.Errorf("genesis.json file already exists: %v", genFile)
			}

			genCfg := app.DefaultGenesisConfig()
			genCfg.ChainID, _ = cmd.Flags().GetString(cli.FlagChainID)
			genCfg.MinParticipants, _ = cmd.Flags().GetUint32(flagMinParticipants)
			genCfg.MaxParticipants, _ = cmd.Flags().GetUint32(flagMaxParticipants)
			genCfg.MaxPayloadSize, _ = cmd.Flags().GetUint64(flagMaxPayloadSize)

			if raw, _ := cmd.Flags().GetString(flagGenesisTime); raw != "" {
				t, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", flagGenesisTime, err)
				}
				genCfg.GenesisTime = t
			}

			genDoc := app.NewGenesisDocFromConfig(genCfg)
			if err := genDoc.Validate(); err != nil {
				return fmt.Errorf("failed to validate genesis doc: %w", err)
			}
			if err := genDoc.SaveAs(genFile); err != nil {
				return fmt.Errorf("failed to write genesis file: %w", err)
			}

			nodeCfg, err := LoadNodeConfig(home)
			if err != nil {
				return err
			}
			nodeCfg.ChainID = genDoc.ChainID
			if err := WriteNodeConfig(home, nodeCfg); err != nil {
				return fmt.Errorf("failed to write app config: %w", err)
			}

			return cli.PrintJSON(cmd, map[string]interface{}{
				"chain_id":        genDoc.ChainID,
				"genesis_time":    genDoc.GenesisTime,
				"genesis_file":    genFile,
				"config_file":     configPath(home),
				"params":          genDoc.AppState.Params,
				"transcript_hash": types.TranscriptHash(genDoc.AppState),
			})
		},
	}

	defaults := types.DefaultParams()
	cmd.Flags().String(cli.FlagChainID, app.DefaultChainID, "genesis file chain-id")
	cmd.Flags().Bool(flagOverwrite, false, "overwrite an existing genesis file")
	cmd.Flags().Uint32(flagMinParticipants, defaults.MinParticipants, "participants required before the ceremony can start")
	cmd.Flags().Uint32(flagMaxParticipants, defaults.MaxParticipants, "participant limit (0 for unbounded)")
	cmd.Flags().Uint64(flagMaxPayloadSize, defaults.MaxPayloadSize, "maximum size in bytes of a commitment or reveal field")
	cmd.Flags().String(flagGenesisTime, "", "genesis time in RFC3339 (defaults to now)")

	return cmd
}

// ValidateGenesisCmd returns a command that validates and audits a genesis file.
func ValidateGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-genesis [file]",
		Short: "Validate a genesis file and audit its transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, _ := cmd.Flags().GetString(cli.FlagHome)
				path = genesisPath(home)
			}

			doc, err := app.GenesisDocFromFile(path)
			if err != nil {
				return fmt.Errorf("error validating genesis file %s: %w", path, err)
			}

			report := types.VerifyTranscript(doc.AppState)
			if err := cli.PrintJSON(cmd, report); err != nil {
				return err
			}
			if !report.Valid {
				return fmt.Errorf("genesis transcript failed audit with %d issue(s)", len(report.Issues))
			}
			return nil
		},
	}
}
