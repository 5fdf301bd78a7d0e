package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesisValidate(t *testing.T) {
	require.NoError(t, DefaultGenesis().Validate())
	require.NoError(t, completeTranscript().Validate())

	bad := completeTranscript()
	bad.Records[0].RevealKey = RevealKeyFor([]byte("something else"))
	require.ErrorIs(t, bad.Validate(), ErrInvalidGenesis)

	bad = completeTranscript()
	bad.Phase = PhaseUnspecified
	require.ErrorIs(t, bad.Validate(), ErrInvalidGenesis)

	bad = completeTranscript()
	bad.Params.MinParticipants = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestGenesisJSONRoundTrip(t *testing.T) {
	gs := completeTranscript()

	bz, err := json.Marshal(gs)
	require.NoError(t, err)
	require.Contains(t, string(bz), `"phase":"Complete"`)
	require.Contains(t, string(bz), `"role":"Coordinator"`)

	var decoded GenesisState
	require.NoError(t, json.Unmarshal(bz, &decoded))
	require.Equal(t, gs, decoded)
	require.Equal(t, TranscriptHash(gs), TranscriptHash(decoded))
}

func TestGenesisCoordinatorAndRecordFor(t *testing.T) {
	gs := completeTranscript()

	coordinator, err := gs.Coordinator()
	require.NoError(t, err)
	require.Equal(t, "alice", coordinator.Identity)

	record, found := gs.RecordFor("bob")
	require.True(t, found)
	require.True(t, record.Revealed)

	_, found = gs.RecordFor("mallory")
	require.False(t, found)

	_, err = DefaultGenesis().Coordinator()
	require.Error(t, err)
}
