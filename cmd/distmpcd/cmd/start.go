package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/api"
	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/app/telemetry"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
)

// StartCmd returns the command that opens the ledger and serves the API.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Open the ledger and serve the ceremony API",
		Long: `Open the ledger under --home, initialize it from genesis.json on first
start, and serve the HTTP API until interrupted.

Settings are read from config/app.toml and may be overridden with
DISTMPCD_ environment variables, e.g. DISTMPCD_API_PORT=1318.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, _ := cmd.Flags().GetString(cli.FlagHome)

			cfg, err := LoadNodeConfig(home)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			return runNode(cmd.Context(), home, cfg, logger)
		},
	}
}

func runNode(ctx context.Context, home string, cfg NodeConfig, logger log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := telemetry.NewProvider(cfg.TelemetryProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	ledger, err := openLedger(home, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("failed to close ledger", "error", err)
		}
	}()

	if cfg.Telemetry.MetricsPort > 0 {
		stop := StartPrometheusServer(cfg.Telemetry.MetricsPort, logger)
		defer stop()
	}

	server, err := api.NewServer(ledger, logger, cfg.APIServerConfig(Version))
	if err != nil {
		return err
	}
	return server.Start(ctx)
}

// openLedger opens the ledger database and applies genesis on first start.
func openLedger(home string, cfg NodeConfig, logger log.Logger) (*app.CeremonyApp, error) {
	db, err := dbm.NewDB(ledgerDBName, dbm.BackendType(cfg.DBBackend), dataPath(home))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBBackend, err)
	}

	ledger, err := app.NewCeremonyApp(logger, db, cfg.ChainID, cfg.LedgerOptions()...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if ledger.Initialized() {
		logger.Info("ledger loaded", "height", ledger.LastCommit().Version)
		return ledger, nil
	}

	doc, err := app.GenesisDocFromFile(genesisPath(home))
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	if doc.ChainID != cfg.ChainID {
		_ = ledger.Close()
		return nil, fmt.Errorf("genesis chain-id %q does not match configured chain-id %q", doc.ChainID, cfg.ChainID)
	}
	if _, err := ledger.InitGenesis(doc); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("failed to apply genesis: %w", err)
	}
	logger.Info("ledger initialized from genesis", "chain_id", doc.ChainID)
	return ledger, nil
}

// StartPrometheusServer serves /metrics on its own port, alongside the copy
// mounted on the API router. The returned func shuts it down.
func StartPrometheusServer(port int, logger log.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
