// Package keeper implements the Ceremony module keeper: a participant
// registry, a forward-only phase state machine and a commit-reveal ledger.
//
// # Core Functionality
//
// Registry: identities join during the Join phase. The first identity to join
// is the coordinator; every later identity is a regular participant. Each
// join creates an empty commit record.
//
// Phases: Join -> Commit -> Reveal -> Complete. Only the coordinator leaves
// Join (Advance). Commit and Reveal are left automatically by
// AutoAdvanceIfComplete once every participant has acted.
//
// Ledger: RecordCommitment stores one commitment per participant;
// RecordReveal stores one reveal per participant and requires the reveal key
// to equal Keccak256(commitment).
//
// # Atomicity
//
// The msg server runs every action on a cached branch of the context and
// writes it back only on success. A rejected action changes nothing.
//
// # Usage Patterns
//
//	ms := keeper.NewMsgServerImpl(*k)
//	_, err := ms.Join(ctx, types.NewMsgJoin("alice"))
//	_, err = ms.Start(ctx, types.NewMsgStart("alice"))
//	_, err = ms.Commit(ctx, types.NewMsgCommit("alice", commitment))
//	_, err = ms.PublishReveal(ctx, types.NewMsgPublishReveal("alice", data, types.RevealKeyFor(commitment)))
package keeper
