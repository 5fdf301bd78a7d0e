package cmd

import (
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/client/cli"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd creates a new root command for distmpcd. It is called once in the
// main function.
func NewRootCmd() *cobra.Command {
	initSDKConfig()

	rootCmd := &cobra.Command{
		Use:   "distmpcd",
		Short: "Commit-reveal ceremony ledger",
		Long: `distmpcd runs a multi-party commit-reveal ceremony on a versioned,
tamper-evident ledger. Participants join, the coordinator starts the ceremony,
every participant commits and then reveals, and anyone can audit the
transcript at any height.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return bindEnvToFlags(cmd.Flags())
		},
	}

	rootCmd.PersistentFlags().String(cli.FlagHome, app.DefaultNodeHome, "directory for config and data")

	rootCmd.AddCommand(
		InitCmd(),
		StartCmd(),
		ExportCmd(),
		ValidateGenesisCmd(),
		KeysCmd(),
		cli.GetTxCmd(app.Name),
		cli.GetQueryCmd(),
		cli.GetHashCmd(),
		versionCmd(),
	)

	return rootCmd
}

// bindEnvToFlags fills every flag the user did not set from its
// DISTMPCD_<FLAG> environment variable.
func bindEnvToFlags(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed {
			return
		}
		value := v.Get(f.Name)
		if value == nil {
			return
		}
		if err := flags.Set(f.Name, cast.ToString(value)); err != nil {
			bindErr = err
		}
	})
	return bindErr
}

var sdkConfigOnce sync.Once

// initSDKConfig initializes the SDK config with the ceremony address prefix
func initSDKConfig() {
	sdkConfigOnce.Do(func() {
		app.SetConfig()
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(Version)
		},
	}
}
