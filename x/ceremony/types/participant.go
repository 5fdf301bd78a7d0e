package types

import (
	"encoding/json"
	"fmt"
	"strings"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

// Role is assigned once, at registration.
type Role uint8

const (
	RoleUnspecified Role = iota
	RoleCoordinator
	RoleRegular
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "Coordinator"
	case RoleRegular:
		return "Regular"
	default:
		return "Unspecified"
	}
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role name.
func (r *Role) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	switch s {
	case "Coordinator":
		*r = RoleCoordinator
	case "Regular":
		*r = RoleRegular
	default:
		return fmt.Errorf("unknown role %q", s)
	}
	return nil
}

// Participant is a registered ceremony identity. It never changes after join.
type Participant struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
	Index    uint64 `json:"index"`
}

// IsCoordinator reports whether the participant holds the coordinator role.
func (p Participant) IsCoordinator() bool {
	return p.Role == RoleCoordinator
}

// ValidateIdentity rejects blank identities.
func ValidateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return ErrInvalidIdentity.Wrap("identity cannot be empty")
	}
	if strings.TrimSpace(identity) != identity {
		return ErrInvalidIdentity.Wrapf("identity %q has surrounding whitespace", identity)
	}
	return nil
}

// CommitRecord is a participant's commit and reveal submissions. Each field is
// written at most once and never cleared.
type CommitRecord struct {
	Identity   string            `json:"identity"`
	Commitment cmtbytes.HexBytes `json:"commitment,omitempty"`
	Committed  bool              `json:"committed"`
	RevealData cmtbytes.HexBytes `json:"reveal_data,omitempty"`
	RevealKey  cmtbytes.HexBytes `json:"reveal_key,omitempty"`
	Revealed   bool              `json:"revealed"`
}

// NewCommitRecord returns the empty record created on join.
func NewCommitRecord(identity string) CommitRecord {
	return CommitRecord{Identity: identity}
}
