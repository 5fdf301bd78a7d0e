package api

import (
	"errors"
	"net/http"

	sdkerrors "cosmossdk.io/errors"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// statusForCategory maps a ceremony error category to an HTTP status.
func statusForCategory(category types.ErrorCategory) int {
	switch category {
	case types.CategoryAuthentication:
		return http.StatusUnauthorized
	case types.CategoryAuthorization:
		return http.StatusForbidden
	case types.CategorySequencing, types.CategoryUniqueness:
		return http.StatusConflict
	case types.CategoryValidation:
		return http.StatusBadRequest
	case types.CategoryIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse converts a ledger error into a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, types.ErrNotInitialized) {
		return http.StatusServiceUnavailable, ceremonyError(err, types.ErrNotInitialized)
	}

	if registered, ok := types.RegisteredError(err); ok {
		return statusForCategory(types.CategoryOf(err)), ceremonyError(err, registered)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return http.StatusNotFound, ErrorResponse{Error: st.Message(), Code: "NOT_FOUND"}
		case codes.InvalidArgument:
			return http.StatusBadRequest, ErrorResponse{Error: st.Message(), Code: "INVALID_ARGUMENT"}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
		Details: err.Error(),
	}
}

func ceremonyError(err error, registered *sdkerrors.Error) ErrorResponse {
	return ErrorResponse{
		Error:     err.Error(),
		Code:      "CEREMONY_ERROR",
		Codespace: registered.Codespace(),
		ABCICode:  registered.ABCICode(),
		Category:  types.CategoryOf(err).String(),
		Recovery:  types.RecoverySuggestions[registered],
	}
}

// abortWithError writes the mapped error response and stops the chain.
func abortWithError(c *gin.Context, err error) {
	code, body := errorResponse(err)
	c.AbortWithStatusJSON(code, body)
}

// badRequest rejects malformed input that never reached the ledger.
func badRequest(c *gin.Context, msg string, err error) {
	body := ErrorResponse{Error: msg, Code: "BAD_REQUEST"}
	if err != nil {
		body.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
