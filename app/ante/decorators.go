package ante

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
	"github.com/paw-chain/distmpc/x/shared/nonce"
)

// ValidateBasicDecorator runs the envelope's stateless checks and binds it to
// the ledger's chain id.
type ValidateBasicDecorator struct{}

// NewValidateBasicDecorator creates a new ValidateBasicDecorator
func NewValidateBasicDecorator() ValidateBasicDecorator {
	return ValidateBasicDecorator{}
}

// AnteHandle implements Decorator.
func (d ValidateBasicDecorator) AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error) {
	if req == nil {
		return ctx, types.ErrInvalidRequest.Wrap("request cannot be nil")
	}
	if err := req.ValidateBasic(); err != nil {
		return ctx, err
	}
	if req.ChainID != ctx.ChainID() {
		return ctx, types.ErrInvalidRequest.Wrapf("request is for chain %q, ledger is %q", req.ChainID, ctx.ChainID())
	}

	return next(ctx, req)
}

// RequestSizeDecorator enforces a hard cap on the combined payload bytes of a
// request before any signature work is done.
type RequestSizeDecorator struct {
	maxBytes int
}

// NewRequestSizeDecorator returns a decorator that rejects payloads exceeding maxBytes.
func NewRequestSizeDecorator(maxBytes int) RequestSizeDecorator {
	return RequestSizeDecorator{maxBytes: maxBytes}
}

// AnteHandle implements Decorator.
func (d RequestSizeDecorator) AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error) {
	size := len(req.Commitment) + len(req.RevealData) + len(req.RevealKey)
	if size > d.maxBytes {
		return ctx, types.ErrInvalidRequest.Wrapf("request payload too large: %d bytes (max %d)", size, d.maxBytes)
	}

	return next(ctx, req)
}

// SigVerificationDecorator checks the request signature against the sender's key.
type SigVerificationDecorator struct{}

// NewSigVerificationDecorator creates a new SigVerificationDecorator
func NewSigVerificationDecorator() SigVerificationDecorator {
	return SigVerificationDecorator{}
}

// AnteHandle implements Decorator.
func (d SigVerificationDecorator) AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error) {
	if err := req.VerifySignature(); err != nil {
		return ctx, err
	}

	return next(ctx, req)
}

// NonceDecorator rejects replayed or stale requests and records the nonce.
type NonceDecorator struct {
	nonces *nonce.Manager
}

// NewNonceDecorator creates a new NonceDecorator
func NewNonceDecorator(nonces *nonce.Manager) NonceDecorator {
	return NonceDecorator{nonces: nonces}
}

// AnteHandle implements Decorator.
func (d NonceDecorator) AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error) {
	if err := d.nonces.ValidateRequestNonce(ctx, req.Sender, req.Nonce, req.Timestamp); err != nil {
		return ctx, err
	}

	return next(ctx, req)
}
