package types

import (
	"context"

	"github.com/cosmos/cosmos-sdk/types/query"
)

// QueryServer is the read-only surface of the ceremony.
type QueryServer interface {
	Params(context.Context, *QueryParamsRequest) (*QueryParamsResponse, error)
	CurrentPhase(context.Context, *QueryCurrentPhaseRequest) (*QueryCurrentPhaseResponse, error)
	ParticipantAt(context.Context, *QueryParticipantAtRequest) (*QueryParticipantAtResponse, error)
	Participants(context.Context, *QueryParticipantsRequest) (*QueryParticipantsResponse, error)
	IsCoordinator(context.Context, *QueryIsCoordinatorRequest) (*QueryIsCoordinatorResponse, error)
	Record(context.Context, *QueryRecordRequest) (*QueryRecordResponse, error)
	Transcript(context.Context, *QueryTranscriptRequest) (*QueryTranscriptResponse, error)
}

type QueryParamsRequest struct{}

type QueryParamsResponse struct {
	Params Params `json:"params"`
}

type QueryCurrentPhaseRequest struct{}

type QueryCurrentPhaseResponse struct {
	Phase            Phase  `json:"phase"`
	ParticipantCount uint64 `json:"participant_count"`
}

type QueryParticipantAtRequest struct {
	Index uint64 `json:"index"`
}

type QueryParticipantAtResponse struct {
	Participant Participant `json:"participant"`
}

type QueryParticipantsRequest struct {
	Pagination *query.PageRequest `json:"pagination,omitempty"`
}

type QueryParticipantsResponse struct {
	Participants []Participant       `json:"participants"`
	Pagination   *query.PageResponse `json:"pagination,omitempty"`
}

type QueryIsCoordinatorRequest struct {
	Identity string `json:"identity"`
}

type QueryIsCoordinatorResponse struct {
	IsParticipant bool `json:"is_participant"`
	IsCoordinator bool `json:"is_coordinator"`
}

type QueryRecordRequest struct {
	Identity string `json:"identity"`
}

type QueryRecordResponse struct {
	Record CommitRecord `json:"record"`
}

type QueryTranscriptRequest struct{}

type QueryTranscriptResponse struct {
	Transcript GenesisState `json:"transcript"`
	Audit      AuditReport  `json:"audit"`
}
