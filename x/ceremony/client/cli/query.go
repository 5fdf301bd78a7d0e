package cli

import (
	"fmt"
	"strconv"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/spf13/cobra"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// GetQueryCmd returns the cli query commands for the ceremony
func GetQueryCmd() *cobra.Command {
	ceremonyQueryCmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying commands for the ceremony",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	ceremonyQueryCmd.AddCommand(
		GetCmdQueryParams(),
		GetCmdQueryPhase(),
		GetCmdQueryParticipants(),
		GetCmdQueryParticipant(),
		GetCmdQueryCoordinator(),
		GetCmdQueryRecord(),
		GetCmdQueryTranscript(),
		GetCmdQueryVerify(),
		GetCmdQueryNonce(),
	)

	return ceremonyQueryCmd
}

// GetCmdQueryParams returns the command to query ceremony parameters
func GetCmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the ceremony parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).Params(cmd.Context(), height)
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryPhase returns the command to query the current phase
func GetCmdQueryPhase() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Query the current phase and participant count",
		Long: `Query the phase of the ceremony, optionally at a past height.

Example:
  $ distmpcd query phase
  $ distmpcd query phase --height 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).Phase(cmd.Context(), height)
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryParticipants returns the command to list participants
func GetCmdQueryParticipants() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants",
		Short: "List participants in join order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, _ := cmd.Flags().GetInt64(FlagHeight)
			limit, _ := cmd.Flags().GetUint64(FlagLimit)
			offset, _ := cmd.Flags().GetUint64(FlagOffset)

			res, err := ClientFromCmd(cmd).Participants(cmd.Context(), height, limit, offset)
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	cmd.Flags().Uint64(FlagLimit, 100, "page size")
	cmd.Flags().Uint64(FlagOffset, 0, "number of participants to skip")
	return cmd
}

// GetCmdQueryParticipant returns the command to query a participant by join index
func GetCmdQueryParticipant() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant [index]",
		Short: "Query the participant with a join index (0 is the coordinator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).ParticipantAt(cmd.Context(), height, index)
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryCoordinator returns the command to query an identity's role
func GetCmdQueryCoordinator() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coordinator [identity]",
		Short: "Report whether an identity is a participant and the coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := types.ValidateIdentity(args[0]); err != nil {
				return err
			}

			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).IsCoordinator(cmd.Context(), height, args[0])
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryRecord returns the command to query a commit record
func GetCmdQueryRecord() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [identity]",
		Short: "Query the commit record of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := types.ValidateIdentity(args[0]); err != nil {
				return err
			}

			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).Record(cmd.Context(), height, args[0])
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryTranscript returns the command to fetch the transcript
func GetCmdQueryTranscript() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Fetch the full transcript with its audit report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).Transcript(cmd.Context(), height)
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryVerify returns the command to audit the transcript
func GetCmdQueryVerify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Audit the transcript; exits non-zero when it is inconsistent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, _ := cmd.Flags().GetInt64(FlagHeight)
			res, err := ClientFromCmd(cmd).Verify(cmd.Context(), height)
			if err != nil {
				return err
			}
			if err := PrintJSON(cmd, res); err != nil {
				return err
			}
			if !res.Audit.Valid {
				return fmt.Errorf("transcript at height %d failed audit with %d issue(s)", res.Height, len(res.Audit.Issues))
			}
			return nil
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryNonce returns the command to query an identity's nonce
func GetCmdQueryNonce() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nonce [identity]",
		Short: "Query the last accepted request nonce of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ClientFromCmd(cmd).Nonce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return PrintJSON(cmd, res)
		},
	}

	AddNodeFlags(cmd)
	return cmd
}

// GetHashCmd returns the offline command deriving a reveal key
func GetHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [commitment]",
		Short: "Print the reveal key (Keccak-256) for a commitment",
		Long: `Print the reveal key a commitment must later be revealed with. The
commitment is hex encoded, or read from a file when prefixed with @.

Example:
  $ distmpcd hash @commitment.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commitment, err := ParseBytes(args[0])
			if err != nil {
				return err
			}
			if len(commitment) == 0 {
				return types.ErrEmptyCommitment
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "0x%x\n", types.RevealKeyFor(commitment))
			return err
		},
	}
}
