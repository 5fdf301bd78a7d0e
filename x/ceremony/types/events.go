package types

// Event types for the Ceremony module
const (
	EventTypeCeremonyJoined       = "ceremony_joined"
	EventTypeCeremonyStarted      = "ceremony_started"
	EventTypeCeremonyCommitted    = "ceremony_committed"
	EventTypeCeremonyRevealed     = "ceremony_revealed"
	EventTypeCeremonyPhaseChanged = "ceremony_phase_changed"
)

// Event attribute keys for the Ceremony module
const (
	AttributeKeyIdentity         = "identity"
	AttributeKeyRole             = "role"
	AttributeKeyIndex            = "index"
	AttributeKeyPhase            = "phase"
	AttributeKeyFromPhase        = "from_phase"
	AttributeKeyToPhase          = "to_phase"
	AttributeKeyTrigger          = "trigger"
	AttributeKeyCommitment       = "commitment"
	AttributeKeyRevealKey        = "reveal_key"
	AttributeKeyRevealDataHash   = "reveal_data_hash"
	AttributeKeyParticipantCount = "participant_count"
)
