package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// maxPageLimit mirrors the query server's pagination cap.
const maxPageLimit = 1000

// parseHeight reads the optional height query parameter. Zero means latest.
func parseHeight(c *gin.Context) (int64, error) {
	raw := c.Query("height")
	if raw == "" {
		return 0, nil
	}
	height, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || height < 0 {
		return 0, fmt.Errorf("height must be a non-negative integer")
	}
	return height, nil
}

// parsePagination reads limit, offset and count_total.
func parsePagination(c *gin.Context) (*query.PageRequest, error) {
	page := &query.PageRequest{}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || limit > maxPageLimit {
			return nil, fmt.Errorf("limit must be an integer in [0, %d]", maxPageLimit)
		}
		page.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("offset must be a non-negative integer")
		}
		page.Offset = offset
	}
	if raw := c.Query("count_total"); raw != "" {
		countTotal, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("count_total must be a boolean")
		}
		page.CountTotal = countTotal
	}

	return page, nil
}

// query runs fn against the ledger at the height named by the request.
func (s *Server) query(c *gin.Context, fn func(ctx sdk.Context, qs types.QueryServer) (interface{}, error)) {
	height, err := parseHeight(c)
	if err != nil {
		badRequest(c, "Invalid height", err)
		return
	}

	var resp interface{}
	err = s.ledger.Query(height, func(ctx sdk.Context) error {
		var err error
		resp, err = fn(ctx, s.ledger.QueryServer())
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleGetParams returns the ceremony parameters
func (s *Server) handleGetParams(c *gin.Context) {
	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.Params(ctx, &types.QueryParamsRequest{})
	})
}

// handleGetPhase returns the current phase and participant count
func (s *Server) handleGetPhase(c *gin.Context) {
	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.CurrentPhase(ctx, &types.QueryCurrentPhaseRequest{})
	})
}

// handleGetParticipants returns the registry in join order
func (s *Server) handleGetParticipants(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		badRequest(c, "Invalid pagination", err)
		return
	}

	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.Participants(ctx, &types.QueryParticipantsRequest{Pagination: page})
	})
}

// handleGetParticipantAt returns the participant with a join index
func (s *Server) handleGetParticipantAt(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid participant index", err)
		return
	}

	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.ParticipantAt(ctx, &types.QueryParticipantAtRequest{Index: index})
	})
}

// handleIsCoordinator reports the role of an identity
func (s *Server) handleIsCoordinator(c *gin.Context) {
	identity := c.Param("identity")
	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.IsCoordinator(ctx, &types.QueryIsCoordinatorRequest{Identity: identity})
	})
}

// handleGetRecord returns an identity's commit record
func (s *Server) handleGetRecord(c *gin.Context) {
	identity := c.Param("identity")
	s.query(c, func(ctx sdk.Context, qs types.QueryServer) (interface{}, error) {
		return qs.Record(ctx, &types.QueryRecordRequest{Identity: identity})
	})
}

// handleGetTranscript returns the transcript and its audit
func (s *Server) handleGetTranscript(c *gin.Context) {
	height, err := parseHeight(c)
	if err != nil {
		badRequest(c, "Invalid height", err)
		return
	}

	committed, resp, err := s.transcriptAt(height)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TranscriptResponse{
		Height:     committed,
		Transcript: resp.Transcript,
		Audit:      resp.Audit,
	})
}

// handleVerifyTranscript audits the transcript at a height
func (s *Server) handleVerifyTranscript(c *gin.Context) {
	height, err := parseHeight(c)
	if err != nil {
		badRequest(c, "Invalid height", err)
		return
	}

	committed, resp, err := s.transcriptAt(height)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Height: committed,
		Audit:  resp.Audit,
	})
}

// handleGetNonce returns the nonce state of an identity
func (s *Server) handleGetNonce(c *gin.Context) {
	identity := c.Param("identity")
	if err := types.ValidateIdentity(identity); err != nil {
		abortWithError(c, err)
		return
	}

	n, err := s.ledger.Nonce(identity)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, NonceResponse{
		Identity:  identity,
		Nonce:     n,
		NextNonce: n + 1,
		ChainID:   s.ledger.ChainID(),
	})
}

// transcriptAt reads the transcript and reports the height it was read at.
func (s *Server) transcriptAt(height int64) (int64, *types.QueryTranscriptResponse, error) {
	var (
		committed int64
		resp      *types.QueryTranscriptResponse
	)
	err := s.ledger.Query(height, func(ctx sdk.Context) error {
		var err error
		committed = ctx.BlockHeight()
		resp, err = s.ledger.QueryServer().Transcript(ctx, &types.QueryTranscriptRequest{})
		return err
	})
	return committed, resp, err
}
