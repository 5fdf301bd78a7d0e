package types

import "fmt"

const (
	// DefaultMinParticipants is the smallest non-degenerate ceremony.
	DefaultMinParticipants uint32 = 2
	// DefaultMaxParticipants of zero leaves the registry unbounded.
	DefaultMaxParticipants uint32 = 0
	// DefaultMaxPayloadSize caps commitments and reveal fields at 1 MiB.
	DefaultMaxPayloadSize uint64 = 1 << 20
)

// Params are fixed at genesis.
type Params struct {
	MinParticipants uint32 `json:"min_participants"`
	MaxParticipants uint32 `json:"max_participants"`
	MaxPayloadSize  uint64 `json:"max_payload_size"`
}

// DefaultParams returns default ceremony parameters
func DefaultParams() Params {
	return Params{
		MinParticipants: DefaultMinParticipants,
		MaxParticipants: DefaultMaxParticipants,
		MaxPayloadSize:  DefaultMaxPayloadSize,
	}
}

// Validate checks parameter bounds.
func (p Params) Validate() error {
	if p.MinParticipants < DefaultMinParticipants {
		return ErrInvalidParams.Wrapf("min participants must be at least %d, got %d", DefaultMinParticipants, p.MinParticipants)
	}
	if p.MaxParticipants != 0 && p.MaxParticipants < p.MinParticipants {
		return ErrInvalidParams.Wrapf("max participants %d below min participants %d", p.MaxParticipants, p.MinParticipants)
	}
	if p.MaxPayloadSize == 0 {
		return ErrInvalidParams.Wrap("max payload size must be positive")
	}
	return nil
}

// RequiredParticipants is the participant count a ceremony needs to leave
// Join, never below DefaultMinParticipants.
func (p Params) RequiredParticipants() int {
	if p.MinParticipants < DefaultMinParticipants {
		return int(DefaultMinParticipants)
	}
	return int(p.MinParticipants)
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("min_participants=%d max_participants=%d max_payload_size=%d",
		p.MinParticipants, p.MaxParticipants, p.MaxPayloadSize)
}
