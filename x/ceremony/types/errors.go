package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Ceremony module sentinel errors
var (
	// Authorization errors
	ErrUnauthorized    = sdkerrors.Register(ModuleName, 2, "caller is not the coordinator")
	ErrNotAParticipant = sdkerrors.Register(ModuleName, 3, "caller is not a registered participant")

	// Sequencing errors
	ErrWrongPhase               = sdkerrors.Register(ModuleName, 4, "action not allowed in current phase")
	ErrPhaseClosed              = sdkerrors.Register(ModuleName, 5, "join phase is closed")
	ErrInsufficientParticipants = sdkerrors.Register(ModuleName, 6, "insufficient participants")

	// Uniqueness errors
	ErrAlreadyRegistered = sdkerrors.Register(ModuleName, 7, "identity already registered")
	ErrAlreadyCommitted  = sdkerrors.Register(ModuleName, 8, "commitment already recorded")
	ErrAlreadyRevealed   = sdkerrors.Register(ModuleName, 9, "reveal already recorded")

	// Input validation errors
	ErrEmptyCommitment = sdkerrors.Register(ModuleName, 10, "commitment cannot be empty")
	ErrEmptyField      = sdkerrors.Register(ModuleName, 11, "reveal data and reveal key cannot be empty")
	ErrInvalidIdentity = sdkerrors.Register(ModuleName, 13, "invalid participant identity")
	ErrPayloadTooLarge = sdkerrors.Register(ModuleName, 14, "payload exceeds maximum size")

	// Integrity errors
	ErrRevealMismatch = sdkerrors.Register(ModuleName, 12, "reveal key does not match hash of commitment")

	// Capacity errors
	ErrCeremonyFull = sdkerrors.Register(ModuleName, 15, "ceremony has reached its participant limit")

	// Request authentication errors
	ErrInvalidSignature = sdkerrors.Register(ModuleName, 20, "invalid request signature")
	ErrInvalidNonce     = sdkerrors.Register(ModuleName, 21, "invalid request nonce")
	ErrInvalidRequest   = sdkerrors.Register(ModuleName, 22, "invalid request")

	// State errors
	ErrInvalidGenesis  = sdkerrors.Register(ModuleName, 30, "invalid genesis state")
	ErrStateCorruption = sdkerrors.Register(ModuleName, 31, "state corruption detected")
	ErrInvalidParams   = sdkerrors.Register(ModuleName, 32, "invalid params")
	ErrInvalidHeight   = sdkerrors.Register(ModuleName, 33, "invalid ledger height")
	ErrNotInitialized  = sdkerrors.Register(ModuleName, 34, "ledger has no genesis")
)

var registeredErrors = []*sdkerrors.Error{
	ErrUnauthorized, ErrNotAParticipant,
	ErrWrongPhase, ErrPhaseClosed, ErrInsufficientParticipants,
	ErrAlreadyRegistered, ErrAlreadyCommitted, ErrAlreadyRevealed,
	ErrEmptyCommitment, ErrEmptyField, ErrInvalidIdentity, ErrPayloadTooLarge,
	ErrRevealMismatch,
	ErrCeremonyFull,
	ErrInvalidSignature, ErrInvalidNonce, ErrInvalidRequest,
	ErrInvalidGenesis, ErrStateCorruption, ErrInvalidParams,
	ErrInvalidHeight, ErrNotInitialized,
}

// ErrorByCode returns the registered ceremony error with the given ABCI code.
func ErrorByCode(code uint32) (*sdkerrors.Error, bool) {
	for _, e := range registeredErrors {
		if e.ABCICode() == code {
			return e, true
		}
	}
	return nil, false
}

// RegisteredError returns the registered ceremony error err wraps, if any.
func RegisteredError(err error) (*sdkerrors.Error, bool) {
	if err == nil {
		return nil, false
	}
	for _, e := range registeredErrors {
		if errors.Is(err, e) {
			return e, true
		}
	}
	return nil, false
}

// ErrorCategory groups ceremony errors by what the caller did wrong.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryAuthorization
	CategorySequencing
	CategoryUniqueness
	CategoryValidation
	CategoryIntegrity
	CategoryAuthentication
	CategoryState
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategorySequencing:
		return "sequencing"
	case CategoryUniqueness:
		return "uniqueness"
	case CategoryValidation:
		return "validation"
	case CategoryIntegrity:
		return "integrity"
	case CategoryAuthentication:
		return "authentication"
	case CategoryState:
		return "state"
	default:
		return "unknown"
	}
}

var errorCategories = map[*sdkerrors.Error]ErrorCategory{
	ErrUnauthorized:             CategoryAuthorization,
	ErrNotAParticipant:          CategoryAuthorization,
	ErrWrongPhase:               CategorySequencing,
	ErrPhaseClosed:              CategorySequencing,
	ErrInsufficientParticipants: CategorySequencing,
	ErrCeremonyFull:             CategorySequencing,
	ErrAlreadyRegistered:        CategoryUniqueness,
	ErrAlreadyCommitted:         CategoryUniqueness,
	ErrAlreadyRevealed:          CategoryUniqueness,
	ErrEmptyCommitment:          CategoryValidation,
	ErrEmptyField:               CategoryValidation,
	ErrInvalidIdentity:          CategoryValidation,
	ErrPayloadTooLarge:          CategoryValidation,
	ErrRevealMismatch:           CategoryIntegrity,
	ErrInvalidSignature:         CategoryAuthentication,
	ErrInvalidNonce:             CategoryAuthentication,
	ErrInvalidRequest:           CategoryAuthentication,
	ErrInvalidGenesis:           CategoryState,
	ErrStateCorruption:          CategoryState,
	ErrInvalidParams:            CategoryState,
	ErrInvalidHeight:            CategoryValidation,
	ErrNotInitialized:           CategoryState,
}

// CategoryOf classifies an error, unwrapping it as needed.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	for _, e := range registeredErrors {
		if errors.Is(err, e) {
			return errorCategories[e]
		}
	}
	return CategoryUnknown
}

// ErrorWithRecovery wraps an error with recovery suggestions
type ErrorWithRecovery struct {
	Err      error
	Recovery string
}

func (e *ErrorWithRecovery) Error() string {
	return e.Err.Error()
}

func (e *ErrorWithRecovery) Unwrap() error {
	return e.Err
}

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrUnauthorized:             "Only the coordinator (the first identity to join) can start the ceremony. Query the participant at index 0 to find the coordinator.",
	ErrNotAParticipant:          "The identity never joined this ceremony. Participants can only join during the Join phase; a ceremony past Join cannot accept new identities.",
	ErrWrongPhase:               "The action is not valid in the current phase. Query the current phase and wait for the ceremony to reach the phase the action belongs to.",
	ErrPhaseClosed:              "The Join phase has ended. The participant set is fixed once the coordinator starts the ceremony.",
	ErrInsufficientParticipants: "At least two participants must join before the coordinator can start the ceremony. Wait for more participants.",
	ErrAlreadyRegistered:        "This identity has already joined. Each identity appears in the registry at most once.",
	ErrAlreadyCommitted:         "A commitment was already recorded for this identity. Commitments are immutable.",
	ErrAlreadyRevealed:          "A reveal was already recorded for this identity. Reveals are immutable.",
	ErrEmptyCommitment:          "Submit a non-empty commitment value.",
	ErrEmptyField:               "Both reveal data and reveal key must be non-empty.",
	ErrInvalidIdentity:          "Identity must be a non-empty account address.",
	ErrPayloadTooLarge:          "Payload exceeds the ceremony's max payload size. Query params for the current limit.",
	ErrRevealMismatch:           "SECURITY: The reveal key must be the Keccak-256 hash of the exact commitment recorded earlier. Recompute the key from the committed value.",
	ErrCeremonyFull:             "The ceremony reached its participant limit. No further identities can join.",
	ErrInvalidSignature:         "Request signature did not verify. Sign the canonical request bytes with the key whose address is the sender.",
	ErrInvalidNonce:             "Request nonce must be greater than the last accepted nonce for the sender. Query the sender's nonce and retry with nonce+1.",
	ErrInvalidRequest:           "Request is malformed or its timestamp is outside the accepted window. Check the local clock.",
	ErrInvalidGenesis:           "Genesis transcript failed validation. Run the transcript audit for details.",
	ErrStateCorruption:          "CRITICAL: Ceremony state is inconsistent. Export the transcript at the last good height and audit it.",
	ErrInvalidParams:            "Parameters are out of range. MinParticipants must be at least 2 and MaxParticipants zero or at least MinParticipants.",
	ErrInvalidHeight:            "Heights start at 1 and end at the latest committed height. Omit the height to read the latest state.",
	ErrNotInitialized:           "Initialize the ledger from a genesis file before submitting requests.",
}

// WrapWithRecovery wraps an error with recovery suggestion
func WrapWithRecovery(err error, msg string, args ...interface{}) error {
	wrapped := sdkerrors.Wrapf(err, msg, args...)

	if suggestion, ok := RecoverySuggestions[err]; ok {
		return &ErrorWithRecovery{
			Err:      wrapped,
			Recovery: suggestion,
		}
	}

	return wrapped
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for _, e := range registeredErrors {
		if errors.Is(err, e) {
			if suggestion, ok := RecoverySuggestions[e]; ok {
				return suggestion
			}
		}
	}

	return "No recovery suggestion available. Query the current phase and the caller's commit record."
}

// NonceErrors maps shared nonce validation failures onto ceremony errors.
type NonceErrors struct{}

// InvalidNonceError implements nonce.ErrorProvider.
func (NonceErrors) InvalidNonceError(msg string) error {
	return ErrInvalidNonce.Wrap(msg)
}

// InvalidRequestError implements nonce.ErrorProvider.
func (NonceErrors) InvalidRequestError(msg string) error {
	return ErrInvalidRequest.Wrap(msg)
}
