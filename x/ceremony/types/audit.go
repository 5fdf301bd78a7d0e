package types

import (
	"encoding/json"
	"fmt"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AuditIssue is one inconsistency found in a transcript.
type AuditIssue struct {
	Identity string `json:"identity,omitempty"`
	Problem  string `json:"problem"`
}

func (i AuditIssue) String() string {
	if i.Identity == "" {
		return i.Problem
	}
	return fmt.Sprintf("%s: %s", i.Identity, i.Problem)
}

// AuditReport summarizes a transcript audit.
type AuditReport struct {
	Phase          Phase             `json:"phase"`
	Participants   int               `json:"participants"`
	Committed      int               `json:"committed"`
	Revealed       int               `json:"revealed"`
	Valid          bool              `json:"valid"`
	Issues         []AuditIssue      `json:"issues,omitempty"`
	TranscriptHash cmtbytes.HexBytes `json:"transcript_hash"`
}

// VerifyTranscript checks everything an outside observer can check from the
// public transcript alone: registry shape, record consistency, phase
// consistency and the commit-reveal hash binding of every reveal.
func VerifyTranscript(gs GenesisState) AuditReport {
	report := AuditReport{
		Phase:        gs.Phase,
		Participants: len(gs.Participants),
	}
	fail := func(identity, format string, args ...interface{}) {
		report.Issues = append(report.Issues, AuditIssue{Identity: identity, Problem: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]struct{}, len(gs.Participants))
	for i, p := range gs.Participants {
		if err := ValidateIdentity(p.Identity); err != nil {
			fail(p.Identity, "participant %d has invalid identity", i)
		}
		if _, dup := seen[p.Identity]; dup {
			fail(p.Identity, "registered more than once")
		}
		seen[p.Identity] = struct{}{}
		if p.Index != uint64(i) {
			fail(p.Identity, "join index %d at position %d", p.Index, i)
		}
		wantRole := RoleRegular
		if i == 0 {
			wantRole = RoleCoordinator
		}
		if p.Role != wantRole {
			fail(p.Identity, "role %s at position %d, expected %s", p.Role, i, wantRole)
		}
	}

	records := make(map[string]struct{}, len(gs.Records))
	for _, r := range gs.Records {
		if _, ok := seen[r.Identity]; !ok {
			fail(r.Identity, "record without a registered participant")
		}
		if _, dup := records[r.Identity]; dup {
			fail(r.Identity, "more than one commit record")
		}
		records[r.Identity] = struct{}{}

		if r.Committed != (len(r.Commitment) > 0) {
			fail(r.Identity, "committed flag %t disagrees with commitment of %d bytes", r.Committed, len(r.Commitment))
		}
		if r.Revealed != (len(r.RevealData) > 0 && len(r.RevealKey) > 0) {
			fail(r.Identity, "revealed flag %t disagrees with reveal fields", r.Revealed)
		}
		if !r.Revealed && (len(r.RevealData) > 0 || len(r.RevealKey) > 0) {
			fail(r.Identity, "partial reveal recorded")
		}
		if r.Revealed && !r.Committed {
			fail(r.Identity, "revealed without a commitment")
		}
		if r.Revealed && !VerifyRevealKey(r.Commitment, r.RevealKey) {
			fail(r.Identity, "reveal key does not hash-match commitment")
		}
		if r.Committed {
			report.Committed++
		}
		if r.Revealed {
			report.Revealed++
		}
	}
	for _, p := range gs.Participants {
		if _, ok := records[p.Identity]; !ok {
			fail(p.Identity, "participant without a commit record")
		}
	}

	n := len(gs.Participants)
	if gs.Phase > PhaseJoin && gs.Phase <= PhaseComplete {
		if required := gs.Params.RequiredParticipants(); n < required {
			fail("", "%s phase with %d participant(s), need %d", gs.Phase, n, required)
		}
	}
	switch gs.Phase {
	case PhaseJoin:
		if report.Committed > 0 || report.Revealed > 0 {
			fail("", "commitments or reveals recorded during Join")
		}
	case PhaseCommit:
		if report.Revealed > 0 {
			fail("", "reveals recorded during Commit")
		}
		if n > 0 && report.Committed == n {
			fail("", "every participant committed but phase is still Commit")
		}
	case PhaseReveal:
		if report.Committed != n {
			fail("", "Reveal phase with %d of %d commitments", report.Committed, n)
		}
		if n > 0 && report.Revealed == n {
			fail("", "every participant revealed but phase is still Reveal")
		}
	case PhaseComplete:
		if report.Revealed != n {
			fail("", "Complete phase with %d of %d reveals", report.Revealed, n)
		}
	default:
		fail("", "invalid phase %s", gs.Phase)
	}

	report.Valid = len(report.Issues) == 0
	report.TranscriptHash = TranscriptHash(gs)
	return report
}

// TranscriptHash is the Keccak-256 digest of the canonical (sorted-key) JSON
// encoding of the transcript. Two observers holding the same transcript
// always compute the same hash.
func TranscriptHash(gs GenesisState) cmtbytes.HexBytes {
	if gs.Participants == nil {
		gs.Participants = []Participant{}
	}
	if gs.Records == nil {
		gs.Records = []CommitRecord{}
	}
	bz, err := json.Marshal(gs)
	if err != nil {
		return nil
	}
	return Keccak256(sdk.MustSortJSON(bz))
}
