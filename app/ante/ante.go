package ante

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/x/ceremony/types"
	"github.com/paw-chain/distmpc/x/shared/nonce"
)

// DefaultMaxRequestBytes bounds the combined payload fields of one request.
const DefaultMaxRequestBytes = 4 << 20

// RequestHandler processes a signed request against ctx.
type RequestHandler func(ctx sdk.Context, req *types.SignedRequest) (sdk.Context, error)

// Decorator wraps a RequestHandler, running its check before calling next.
type Decorator interface {
	AnteHandle(ctx sdk.Context, req *types.SignedRequest, next RequestHandler) (sdk.Context, error)
}

// ChainDecorators chains decorators into a single handler. The first
// decorator runs first; the chain ends with a no-op terminator.
func ChainDecorators(chain ...Decorator) RequestHandler {
	if len(chain) == 0 {
		return func(ctx sdk.Context, _ *types.SignedRequest) (sdk.Context, error) {
			return ctx, nil
		}
	}

	next := ChainDecorators(chain[1:]...)
	return func(ctx sdk.Context, req *types.SignedRequest) (sdk.Context, error) {
		return chain[0].AnteHandle(ctx, req, next)
	}
}

// HandlerOptions are the options required for constructing the request ante handler.
type HandlerOptions struct {
	NonceManager    *nonce.Manager
	MaxRequestBytes int
}

// NewAnteHandler returns a handler that validates the envelope, bounds its
// size, verifies the signature and consumes the sender's nonce, in that order.
func NewAnteHandler(options HandlerOptions) (RequestHandler, error) {
	if options.NonceManager == nil {
		return nil, fmt.Errorf("nonce manager is required for ante builder")
	}
	if options.MaxRequestBytes <= 0 {
		options.MaxRequestBytes = DefaultMaxRequestBytes
	}

	decorators := []Decorator{
		NewValidateBasicDecorator(),
		NewRequestSizeDecorator(options.MaxRequestBytes),
		NewSigVerificationDecorator(),
		NewNonceDecorator(options.NonceManager), // must run last: it writes the nonce
	}

	return ChainDecorators(decorators...), nil
}
