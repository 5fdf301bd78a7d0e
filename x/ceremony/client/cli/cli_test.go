package cli_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/distmpc/api"
	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

const (
	testChainID = "distmpc-cli-test"
	serviceName = "distmpc-test"
)

type cliEnv struct {
	node string
	home string
	ids  map[string]string
}

func setupCLI(t *testing.T, names ...string) *cliEnv {
	t.Helper()

	ledger, err := app.NewCeremonyApp(log.NewNopLogger(), dbm.NewMemDB(), testChainID)
	require.NoError(t, err)
	cfg := app.DefaultGenesisConfig()
	cfg.ChainID = testChainID
	_, err = ledger.InitGenesis(app.NewGenesisDocFromConfig(cfg))
	require.NoError(t, err)

	config := api.DefaultConfig()
	config.RateLimitRPS = 0
	server, err := api.NewServer(ledger, log.NewNopLogger(), config)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	env := &cliEnv{node: ts.URL, home: t.TempDir(), ids: map[string]string{}}
	kr, err := cli.NewKeyring(serviceName, keyring.BackendTest, env.home, nil)
	require.NoError(t, err)
	for _, name := range names {
		record, _, err := kr.NewMnemonic(name, keyring.English, sdk.FullFundraiserPath, keyring.DefaultBIP39Passphrase, hd.Secp256k1)
		require.NoError(t, err)
		pub, err := record.GetPubKey()
		require.NoError(t, err)
		env.ids[name], err = types.IdentityFromPubKey(pub)
		require.NoError(t, err)
	}
	return env
}

func (e *cliEnv) run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "distmpcd", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String(cli.FlagHome, e.home, "")
	root.AddCommand(cmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--"+cli.FlagNode, e.node))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) tx(t *testing.T, from string, args ...string) (app.Receipt, error) {
	t.Helper()
	args = append(append([]string{"tx"}, args...), "--from", from)
	out, err := e.run(t, cli.GetTxCmd(serviceName), args...)
	if err != nil {
		return app.Receipt{}, err
	}
	var receipt app.Receipt
	require.NoError(t, json.Unmarshal([]byte(out), &receipt), out)
	return receipt, nil
}

func TestCeremonyThroughCLI(t *testing.T) {
	env := setupCLI(t, "alice", "bob")

	receipt, err := env.tx(t, "alice", "join")
	require.NoError(t, err)
	require.Equal(t, int64(2), receipt.Height)

	_, err = env.tx(t, "bob", "join")
	require.NoError(t, err)

	_, err = env.tx(t, "bob", "start")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	receipt, err = env.tx(t, "alice", "start")
	require.NoError(t, err)
	require.Equal(t, types.PhaseCommit, receipt.Phase)

	_, err = env.tx(t, "alice", "commit", "0xaa01")
	require.NoError(t, err)
	receipt, err = env.tx(t, "bob", "commit", "bb02")
	require.NoError(t, err)
	require.Equal(t, types.PhaseReveal, receipt.Phase)

	_, err = env.tx(t, "alice", "reveal", "0x01", "--commitment", "0xbb02")
	require.ErrorIs(t, err, types.ErrRevealMismatch)

	_, err = env.tx(t, "alice", "reveal", "0x01", "--commitment", "0xaa01")
	require.NoError(t, err)
	receipt, err = env.tx(t, "bob", "reveal", "0x02", "--reveal-key", "0x"+hex.EncodeToString(types.RevealKeyFor([]byte{0xbb, 0x02})))
	require.NoError(t, err)
	require.Equal(t, types.PhaseComplete, receipt.Phase)

	out, err := env.run(t, cli.GetQueryCmd(), "query", "verify")
	require.NoError(t, err)
	var verify api.VerifyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &verify))
	require.True(t, verify.Audit.Valid)
	require.Equal(t, 2, verify.Audit.Revealed)

	out, err = env.run(t, cli.GetQueryCmd(), "query", "coordinator", env.ids["alice"])
	require.NoError(t, err)
	var role types.QueryIsCoordinatorResponse
	require.NoError(t, json.Unmarshal([]byte(out), &role))
	require.True(t, role.IsCoordinator)

	out, err = env.run(t, cli.GetQueryCmd(), "query", "phase", "--height", "3")
	require.NoError(t, err)
	var phase types.QueryCurrentPhaseResponse
	require.NoError(t, json.Unmarshal([]byte(out), &phase))
	require.Equal(t, types.PhaseJoin, phase.Phase)

	out, err = env.run(t, cli.GetQueryCmd(), "query", "nonce", env.ids["alice"])
	require.NoError(t, err)
	var nonce api.NonceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &nonce))
	require.Equal(t, uint64(4), nonce.Nonce)
}

func TestRevealRequiresExactlyOneKeySource(t *testing.T) {
	env := setupCLI(t, "alice")

	_, err := env.tx(t, "alice", "reveal", "0x01")
	require.Error(t, err)

	_, err = env.tx(t, "alice", "reveal", "0x01", "--commitment", "0x01", "--reveal-key", "0x02")
	require.Error(t, err)
}

func TestTxUnknownKey(t *testing.T) {
	env := setupCLI(t)
	_, err := env.tx(t, "nobody", "join")
	require.Error(t, err)
}

func TestQueryRecordNotFound(t *testing.T) {
	env := setupCLI(t, "alice")
	_, err := env.run(t, cli.GetQueryCmd(), "query", "record", env.ids["alice"])
	require.ErrorContains(t, err, "HTTP 404")
}

func TestHashCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := cli.GetHashCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"0xaa01"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "0x"+hex.EncodeToString(types.RevealKeyFor([]byte{0xaa, 0x01}))+"\n", out.String())

	cmd = cli.GetHashCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"zz"})
	require.Error(t, cmd.Execute())
}

func TestParseBytes(t *testing.T) {
	bz, err := cli.ParseBytes("0xdead")
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, bz)

	bz, err = cli.ParseBytes("")
	require.NoError(t, err)
	require.Empty(t, bz)

	_, err = cli.ParseBytes("@/does/not/exist")
	require.Error(t, err)
}
