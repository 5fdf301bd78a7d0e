package api

import (
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Codespace string `json:"codespace,omitempty"`
	ABCICode  uint32 `json:"abci_code,omitempty"`
	Category  string `json:"category,omitempty"`
	Recovery  string `json:"recovery,omitempty"`
	Details   string `json:"details,omitempty"`
}

// NonceResponse reports the last accepted nonce of an identity.
type NonceResponse struct {
	Identity  string `json:"identity"`
	Nonce     uint64 `json:"nonce"`
	NextNonce uint64 `json:"next_nonce"`
	ChainID   string `json:"chain_id"`
}

// VerifyResponse is the audit of the transcript at a height.
type VerifyResponse struct {
	Height int64             `json:"height"`
	Audit  types.AuditReport `json:"audit"`
}

// TranscriptResponse is the full transcript at a height.
type TranscriptResponse struct {
	Height     int64              `json:"height"`
	Transcript types.GenesisState `json:"transcript"`
	Audit      types.AuditReport  `json:"audit"`
}

// HashRequest asks the server to derive the reveal key of a commitment.
type HashRequest struct {
	Commitment cmtbytes.HexBytes `json:"commitment"`
}

// HashResponse carries the reveal key expected for a commitment.
type HashResponse struct {
	Commitment cmtbytes.HexBytes `json:"commitment"`
	RevealKey  cmtbytes.HexBytes `json:"reveal_key"`
}
