// Package upkeep provides error handling for ledger housekeeping that runs
// after an accepted action, such as nonce pruning. Housekeeping failures never
// reject the action that triggered them.
package upkeep

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EventTypeUpkeepError is emitted for every housekeeping failure.
const EventTypeUpkeepError = "upkeep_error"

// Severity classifies housekeeping failures.
type Severity int

const (
	// SeverityLow covers failures with no effect on the ceremony, such as a
	// skipped prune batch.
	SeverityLow Severity = iota

	// SeverityMedium covers failures that degrade service but not state.
	SeverityMedium

	// SeverityHigh covers failures that need operator attention.
	SeverityHigh
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Handler logs housekeeping failures with their severity and emits an event
// for each one.
type Handler struct {
	component string
	ctx       sdk.Context
	onError   func(operation string, severity Severity)
}

// NewHandler creates a handler for the given component. onError, when set,
// is called for every handled failure and is meant for metrics.
func NewHandler(ctx sdk.Context, component string, onError func(operation string, severity Severity)) *Handler {
	return &Handler{
		component: component,
		ctx:       ctx,
		onError:   onError,
	}
}

// HandleError logs and emits an event for err. Callers continue afterwards.
func (h *Handler) HandleError(operation string, severity Severity, err error) {
	if err == nil {
		return
	}

	kv := []interface{}{
		"component", h.component,
		"operation", operation,
		"severity", severity.String(),
		"error", err.Error(),
	}
	switch severity {
	case SeverityHigh:
		h.ctx.Logger().Error("upkeep failed", kv...)
	case SeverityMedium:
		h.ctx.Logger().Warn("upkeep degraded", kv...)
	default:
		h.ctx.Logger().Debug("upkeep minor issue", kv...)
	}

	h.ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeUpkeepError,
			sdk.NewAttribute("component", h.component),
			sdk.NewAttribute("operation", operation),
			sdk.NewAttribute("severity", severity.String()),
			sdk.NewAttribute("error", err.Error()),
			sdk.NewAttribute("height", fmt.Sprintf("%d", h.ctx.BlockHeight())),
		),
	)

	if h.onError != nil {
		h.onError(operation, severity)
	}
}

// WrapError handles err and reports whether there was one.
//
//	if h.WrapError("prune-nonces", SeverityLow, err) {
//	    // handled, carry on
//	}
func (h *Handler) WrapError(operation string, severity Severity, err error) bool {
	if err != nil {
		h.HandleError(operation, severity, err)
		return true
	}
	return false
}
