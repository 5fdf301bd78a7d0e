package types

import (
	"encoding/json"
	"fmt"
)

// Phase is a stage of the ceremony. Phases only move forward.
type Phase uint8

const (
	PhaseUnspecified Phase = iota
	PhaseJoin
	PhaseCommit
	PhaseReveal
	PhaseComplete
)

// Trigger names what is allowed to fire a phase transition.
type Trigger uint8

const (
	// TriggerCoordinator transitions are requested explicitly by the coordinator.
	TriggerCoordinator Trigger = iota + 1
	// TriggerCompletion transitions fire when every participant has acted.
	TriggerCompletion
)

func (t Trigger) String() string {
	switch t {
	case TriggerCoordinator:
		return "coordinator"
	case TriggerCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// Transition is an edge in the phase state machine.
type Transition struct {
	From    Phase
	To      Phase
	Trigger Trigger
}

// transitions is the complete table of legal phase changes. Anything not
// listed here, including every backward edge, is rejected.
var transitions = map[Phase]Transition{
	PhaseJoin:   {From: PhaseJoin, To: PhaseCommit, Trigger: TriggerCoordinator},
	PhaseCommit: {From: PhaseCommit, To: PhaseReveal, Trigger: TriggerCompletion},
	PhaseReveal: {From: PhaseReveal, To: PhaseComplete, Trigger: TriggerCompletion},
}

var phaseNames = map[Phase]string{
	PhaseUnspecified: "Unspecified",
	PhaseJoin:        "Join",
	PhaseCommit:      "Commit",
	PhaseReveal:      "Reveal",
	PhaseComplete:    "Complete",
}

// String returns the phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// IsValid reports whether p is one of the four ceremony phases.
func (p Phase) IsValid() bool {
	return p >= PhaseJoin && p <= PhaseComplete
}

// IsTerminal reports whether no transition leaves p.
func (p Phase) IsTerminal() bool {
	_, ok := transitions[p]
	return p.IsValid() && !ok
}

// Next returns the single transition out of p, if any.
func (p Phase) Next() (Transition, bool) {
	t, ok := transitions[p]
	return t, ok
}

// CanTransitionTo reports whether the table allows p -> next fired by trigger.
func (p Phase) CanTransitionTo(next Phase, trigger Trigger) bool {
	t, ok := transitions[p]
	return ok && t.To == next && t.Trigger == trigger
}

// ParsePhase parses a phase name as produced by String.
func ParsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if p != PhaseUnspecified && name == s {
			return p, nil
		}
	}
	return PhaseUnspecified, fmt.Errorf("unknown phase %q", s)
}

// MarshalJSON encodes the phase by name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase name.
func (p *Phase) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
