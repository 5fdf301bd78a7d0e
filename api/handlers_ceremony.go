package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// handleJoin registers the signer as a participant
func (s *Server) handleJoin(c *gin.Context) {
	s.deliver(c, types.TypeMsgJoin)
}

// handleStart moves the ceremony from Join to Commit
func (s *Server) handleStart(c *gin.Context) {
	s.deliver(c, types.TypeMsgStart)
}

// handleCommit records the signer's commitment
func (s *Server) handleCommit(c *gin.Context) {
	s.deliver(c, types.TypeMsgCommit)
}

// handlePublishReveal records the signer's reveal
func (s *Server) handlePublishReveal(c *gin.Context) {
	s.deliver(c, types.TypeMsgPublishReveal)
}

// deliver decodes a signed request for action and hands it to the ledger.
func (s *Server) deliver(c *gin.Context, action string) {
	var req types.SignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if req.Action != action {
		badRequest(c, fmt.Sprintf("request action %q posted to %s endpoint", req.Action, action), nil)
		return
	}
	if err := c.Request.Context().Err(); err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Request timeout",
			Code:  "TIMEOUT",
		})
		return
	}

	receipt, err := s.ledger.Deliver(&req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// handleHash derives the reveal key a commitment must be revealed with
func (s *Server) handleHash(c *gin.Context) {
	var req HashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if len(req.Commitment) == 0 {
		abortWithError(c, types.ErrEmptyCommitment)
		return
	}

	c.JSON(http.StatusOK, HashResponse{
		Commitment: req.Commitment,
		RevealKey:  types.RevealKeyFor(req.Commitment),
	})
}
