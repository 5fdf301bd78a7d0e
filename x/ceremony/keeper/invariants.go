package keeper

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// RegisterInvariants registers all ceremony module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "registry-consistency",
		RegistryConsistencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "transcript-validity",
		TranscriptValidityInvariant(k))
}

// AllInvariants runs all invariants of the ceremony module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := RegistryConsistencyInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return TranscriptValidityInvariant(k)(ctx)
	}
}

// RegistryConsistencyInvariant checks that the participant count, the ordered
// participant entries, the identity index and the record store agree.
func RegistryConsistencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		count := k.ParticipantCount(ctx)
		participants := k.GetAllParticipants(ctx)
		if uint64(len(participants)) != count {
			issues = append(issues, fmt.Sprintf("participant count %d but %d entries stored", count, len(participants)))
		}

		for i, p := range participants {
			if p.Index != uint64(i) {
				issues = append(issues, fmt.Sprintf("participant %s stored at position %d has index %d", p.Identity, i, p.Index))
			}
			indexed, found := k.GetParticipant(ctx, p.Identity)
			if !found || indexed.Index != p.Index {
				issues = append(issues, fmt.Sprintf("identity index for %s is missing or stale", p.Identity))
			}
		}

		records := 0
		err := k.iterateRecords(ctx, func(r types.CommitRecord) bool {
			records++
			if !k.IsParticipant(ctx, r.Identity) {
				issues = append(issues, fmt.Sprintf("record for unregistered identity %s", r.Identity))
			}
			return false
		})
		if err != nil {
			issues = append(issues, err.Error())
		}
		if uint64(records) != count {
			issues = append(issues, fmt.Sprintf("%d records for %d participants", records, count))
		}

		broken := len(issues) > 0
		return sdk.FormatInvariant(
			types.ModuleName, "registry-consistency",
			fmt.Sprintf("found %d issue(s)\n%s", len(issues), strings.Join(issues, "\n")),
		), broken
	}
}

// TranscriptValidityInvariant runs the public transcript audit against state.
func TranscriptValidityInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		report := types.VerifyTranscript(*k.ExportGenesis(ctx))

		issues := make([]string, 0, len(report.Issues))
		for _, issue := range report.Issues {
			issues = append(issues, issue.String())
		}

		return sdk.FormatInvariant(
			types.ModuleName, "transcript-validity",
			fmt.Sprintf("found %d issue(s)\n%s", len(issues), strings.Join(issues, "\n")),
		), !report.Valid
	}
}
