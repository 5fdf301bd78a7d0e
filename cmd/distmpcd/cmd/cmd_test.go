package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/cosmos/go-bip39"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

func execRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitWritesConfigAndGenesis(t *testing.T) {
	home := t.TempDir()

	_, err := execRoot(t, "", "init", "--home", home, "--chain-id", "distmpc-test", "--min-participants", "3", "--max-participants", "5")
	require.NoError(t, err)

	cfg, err := LoadNodeConfig(home)
	require.NoError(t, err)
	require.Equal(t, "distmpc-test", cfg.ChainID)
	require.NoError(t, cfg.Validate())

	doc, err := app.GenesisDocFromFile(genesisPath(home))
	require.NoError(t, err)
	require.Equal(t, "distmpc-test", doc.ChainID)
	require.Equal(t, uint32(3), doc.AppState.Params.MinParticipants)
	require.Equal(t, uint32(5), doc.AppState.Params.MaxParticipants)
	require.Equal(t, types.PhaseJoin, doc.AppState.Phase)

	_, err = execRoot(t, "", "init", "--home", home)
	require.ErrorContains(t, err, "already exists")

	_, err = execRoot(t, "", "init", "--home", home, "--overwrite", "--chain-id", "distmpc-other")
	require.NoError(t, err)
	doc, err = app.GenesisDocFromFile(genesisPath(home))
	require.NoError(t, err)
	require.Equal(t, "distmpc-other", doc.ChainID)
}

func TestInitRejectsInvalidParams(t *testing.T) {
	home := t.TempDir()

	_, err := execRoot(t, "", "init", "--home", home, "--min-participants", "4", "--max-participants", "2")
	require.Error(t, err)

	_, err = execRoot(t, "", "init", "--home", home, "--genesis-time", "yesterday")
	require.Error(t, err)

	_, err = os.Stat(genesisPath(home))
	require.True(t, os.IsNotExist(err))
}

func TestValidateGenesisCmd(t *testing.T) {
	home := t.TempDir()
	_, err := execRoot(t, "", "init", "--home", home)
	require.NoError(t, err)

	out, err := execRoot(t, "", "validate-genesis", "--home", home)
	require.NoError(t, err)
	require.Contains(t, out, `"valid": true`)

	_, err = execRoot(t, "", "validate-genesis", filepath.Join(home, "missing.json"))
	require.Error(t, err)
}

func TestLoadNodeConfigDefaultsAndEnv(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadNodeConfig(home)
	require.NoError(t, err)
	require.Equal(t, DefaultNodeConfig(), cfg)

	t.Setenv("DISTMPCD_API_PORT", "1400")
	t.Setenv("DISTMPCD_LEDGER_NONCE_TTL", "7200")
	t.Setenv("DISTMPCD_LOG_LEVEL", "debug")

	cfg, err = LoadNodeConfig(home)
	require.NoError(t, err)
	require.Equal(t, "1400", cfg.API.Port)
	require.Equal(t, int64(7200), cfg.Ledger.NonceTTL)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestWriteNodeConfigRoundTrip(t *testing.T) {
	home := t.TempDir()

	cfg := DefaultNodeConfig()
	cfg.ChainID = "distmpc-rt"
	cfg.DBBackend = "memdb"
	cfg.API.Port = "1999"
	cfg.API.RequestTimeout = 3 * time.Second
	cfg.Telemetry.MetricsPort = 26660
	require.NoError(t, WriteNodeConfig(home, cfg))

	loaded, err := LoadNodeConfig(home)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestNodeConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NodeConfig)
		wantErr bool
	}{
		{"defaults", func(*NodeConfig) {}, false},
		{"empty chain id", func(c *NodeConfig) { c.ChainID = "" }, true},
		{"bad log level", func(c *NodeConfig) { c.LogLevel = "loud" }, true},
		{"bad log format", func(c *NodeConfig) { c.LogFormat = "xml" }, true},
		{"nonce ttl inside timestamp window", func(c *NodeConfig) { c.Ledger.NonceTTL = 1 }, true},
		{"zero request bytes", func(c *NodeConfig) { c.Ledger.MaxRequestBytes = 0 }, true},
		{"telemetry without endpoint", func(c *NodeConfig) { c.Telemetry.Enabled = true }, true},
		{"telemetry with endpoint", func(c *NodeConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.OTLPEndpoint = "localhost:4317"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultNodeConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"k":"v"`)

	_, err = NewLogger(&buf, "verbose", "plain")
	require.Error(t, err)
}

func TestBindEnvToFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("chain-id", "default", "")
	flags.Int64("height", 0, "")
	flags.String("node", "default", "")
	require.NoError(t, flags.Set("node", "explicit"))

	t.Setenv("DISTMPCD_CHAIN_ID", "from-env")
	t.Setenv("DISTMPCD_HEIGHT", "12")
	t.Setenv("DISTMPCD_NODE", "ignored")

	require.NoError(t, bindEnvToFlags(flags))

	chainID, _ := flags.GetString("chain-id")
	height, _ := flags.GetInt64("height")
	node, _ := flags.GetString("node")
	require.Equal(t, "from-env", chainID)
	require.Equal(t, int64(12), height)
	require.Equal(t, "explicit", node)

	t.Setenv("DISTMPCD_HEIGHT", "twelve")
	flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("height", 0, "")
	require.Error(t, bindEnvToFlags(flags))
}

func TestKeysLifecycle(t *testing.T) {
	home := t.TempDir()
	backend := []string{"--home", home, "--keyring-backend", "test"}

	out, err := execRoot(t, "", append([]string{"keys", "add", "alice", "--mnemonic-length", "12"}, backend...)...)
	require.NoError(t, err)
	require.Contains(t, out, "- name: alice")
	require.Contains(t, out, "identity: "+types.Bech32Prefix+"1")
	require.Contains(t, out, "**IMPORTANT**")

	mnemonic, err := bip39.NewMnemonic(make([]byte, 32))
	require.NoError(t, err)
	out, err = execRoot(t, mnemonic+"\n", append([]string{"keys", "add", "bob", "--recover"}, backend...)...)
	require.NoError(t, err)
	require.NotContains(t, out, "**IMPORTANT**")

	out, err = execRoot(t, "", append([]string{"keys", "show", "bob"}, backend...)...)
	require.NoError(t, err)
	require.Contains(t, out, "- name: bob")

	out, err = execRoot(t, "", append([]string{"keys", "list"}, backend...)...)
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "bob")

	_, err = execRoot(t, "", append([]string{"keys", "delete", "alice", "-y"}, backend...)...)
	require.NoError(t, err)
	_, err = execRoot(t, "", append([]string{"keys", "show", "alice"}, backend...)...)
	require.Error(t, err)

	_, err = execRoot(t, "not a mnemonic\n", append([]string{"keys", "add", "carol", "--recover"}, backend...)...)
	require.Error(t, err)
	_, err = execRoot(t, "", append([]string{"keys", "add", "dave", "--mnemonic-length", "18"}, backend...)...)
	require.Error(t, err)
}

func TestOpenLedgerAndExport(t *testing.T) {
	home := t.TempDir()
	_, err := execRoot(t, "", "init", "--home", home, "--chain-id", "distmpc-export")
	require.NoError(t, err)

	cfg, err := LoadNodeConfig(home)
	require.NoError(t, err)

	ledger, err := openLedger(home, cfg, log.NewNopLogger())
	require.NoError(t, err)
	require.True(t, ledger.Initialized())

	priv := secp256k1.GenPrivKey()
	req := types.NewSignedRequest(types.TypeMsgJoin, cfg.ChainID, 1, time.Now().Unix())
	require.NoError(t, req.Sign(priv))
	receipt, err := ledger.Deliver(req)
	require.NoError(t, err)
	require.Equal(t, int64(2), receipt.Height)
	require.NoError(t, ledger.Close())

	// Reopening loads the committed height instead of reapplying genesis.
	ledger, err = openLedger(home, cfg, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, int64(2), ledger.LastCommit().Version)
	require.NoError(t, ledger.Close())

	exported, err := exportTranscript(home, cfg, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), exported.Height)
	require.Len(t, exported.AppState.Participants, 1)
	require.True(t, exported.Audit.Valid)

	exported, err = exportTranscript(home, cfg, 1)
	require.NoError(t, err)
	require.Empty(t, exported.AppState.Participants)

	output := filepath.Join(home, "export.json")
	_, err = execRoot(t, "", "export", "--home", home, "--output-document", output)
	require.NoError(t, err)
	bz, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(bz), `"chain_id": "distmpc-export"`)
}

func TestOpenLedgerChainIDMismatch(t *testing.T) {
	home := t.TempDir()
	_, err := execRoot(t, "", "init", "--home", home, "--chain-id", "distmpc-a")
	require.NoError(t, err)

	cfg, err := LoadNodeConfig(home)
	require.NoError(t, err)
	cfg.ChainID = "distmpc-b"

	_, err = openLedger(home, cfg, log.NewNopLogger())
	require.ErrorContains(t, err, "does not match")
}
