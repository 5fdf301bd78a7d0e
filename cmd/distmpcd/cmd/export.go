package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

const flagOutput = "output-document"

// ExportedTranscript is the document written by export.
type ExportedTranscript struct {
	ChainID  string             `json:"chain_id"`
	Height   int64              `json:"height"`
	AppState types.GenesisState `json:"app_state"`
	Audit    types.AuditReport  `json:"audit"`
}

// ExportCmd dumps the transcript at a height from a stopped node's ledger.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ceremony transcript from the local ledger",
		Long: `Export the transcript and its audit report at a height (default latest).
The node must be stopped; the ledger database is opened directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, _ := cmd.Flags().GetString(cli.FlagHome)
			height, _ := cmd.Flags().GetInt64(cli.FlagHeight)
			output, _ := cmd.Flags().GetString(flagOutput)

			cfg, err := LoadNodeConfig(home)
			if err != nil {
				return err
			}

			exported, err := exportTranscript(home, cfg, height)
			if err != nil {
				return err
			}

			if output == "" {
				return cli.PrintJSON(cmd, exported)
			}
			bz, err := json.MarshalIndent(exported, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(output, bz, 0o644)
		},
	}

	cmd.Flags().Int64(cli.FlagHeight, 0, "height to export (0 for latest)")
	cmd.Flags().String(flagOutput, "", "write the export to a file instead of stdout")
	return cmd
}

func exportTranscript(home string, cfg NodeConfig, height int64) (*ExportedTranscript, error) {
	db, err := dbm.NewDB(ledgerDBName, dbm.BackendType(cfg.DBBackend), dataPath(home))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBBackend, err)
	}

	ledger, err := app.NewCeremonyApp(log.NewNopLogger(), db, cfg.ChainID, app.WithInvariantChecks(false))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	defer ledger.Close()

	if !ledger.Initialized() {
		return nil, types.ErrNotInitialized
	}
	if height == 0 {
		height = ledger.LastCommit().Version
	}

	resp, err := ledger.Transcript(height)
	if err != nil {
		return nil, err
	}
	return &ExportedTranscript{
		ChainID:  cfg.ChainID,
		Height:   height,
		AppState: resp.Transcript,
		Audit:    resp.Audit,
	}, nil
}
