package types

import (
	"fmt"
)

// GenesisState is the full ceremony transcript: parameters, phase, the ordered
// participant list and every commit record. It is what an auditor rebuilds and
// what the ledger exports at any committed height.
type GenesisState struct {
	Params       Params         `json:"params"`
	Phase        Phase          `json:"phase"`
	Participants []Participant  `json:"participants"`
	Records      []CommitRecord `json:"records"`
}

// DefaultGenesis returns the default genesis state for the ceremony module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:       DefaultParams(),
		Phase:        PhaseJoin,
		Participants: []Participant{},
		Records:      []CommitRecord{},
	}
}

// Validate ensures the genesis state is well-formed and internally consistent.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	if !gs.Phase.IsValid() {
		return ErrInvalidGenesis.Wrapf("invalid phase %s", gs.Phase)
	}

	report := VerifyTranscript(gs)
	if !report.Valid {
		issue := report.Issues[0]
		return ErrInvalidGenesis.Wrapf("%d transcript issue(s), first: %s", len(report.Issues), issue)
	}

	return nil
}

// RecordFor returns the record of identity, if present.
func (gs GenesisState) RecordFor(identity string) (CommitRecord, bool) {
	for _, r := range gs.Records {
		if r.Identity == identity {
			return r, true
		}
	}
	return CommitRecord{}, false
}

// Coordinator returns the participant holding the coordinator role.
func (gs GenesisState) Coordinator() (Participant, error) {
	for _, p := range gs.Participants {
		if p.IsCoordinator() {
			return p, nil
		}
	}
	return Participant{}, fmt.Errorf("no coordinator in transcript")
}
