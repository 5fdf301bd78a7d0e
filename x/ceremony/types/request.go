package types

import (
	"encoding/json"
	"fmt"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RequestMsg is the ceremony message carried by a signed request.
type RequestMsg interface {
	Route() string
	Type() string
	ValidateBasic() error
}

// SignedRequest is the authenticated envelope a participant submits to the
// ledger. The sender identity is the bech32 address of the signing key.
type SignedRequest struct {
	Action     string            `json:"action"`
	ChainID    string            `json:"chain_id"`
	Sender     string            `json:"sender"`
	PubKey     cmtbytes.HexBytes `json:"pub_key"`
	Nonce      uint64            `json:"nonce"`
	Timestamp  int64             `json:"timestamp"`
	Commitment cmtbytes.HexBytes `json:"commitment,omitempty"`
	RevealData cmtbytes.HexBytes `json:"reveal_data,omitempty"`
	RevealKey  cmtbytes.HexBytes `json:"reveal_key,omitempty"`
	Signature  cmtbytes.HexBytes `json:"signature,omitempty"`
}

// signDoc is everything in a request except the signature.
type signDoc struct {
	Action     string            `json:"action"`
	ChainID    string            `json:"chain_id"`
	Sender     string            `json:"sender"`
	PubKey     cmtbytes.HexBytes `json:"pub_key"`
	Nonce      uint64            `json:"nonce"`
	Timestamp  int64             `json:"timestamp"`
	Commitment cmtbytes.HexBytes `json:"commitment,omitempty"`
	RevealData cmtbytes.HexBytes `json:"reveal_data,omitempty"`
	RevealKey  cmtbytes.HexBytes `json:"reveal_key,omitempty"`
}

// NewSignedRequest returns an unsigned request for the given action.
func NewSignedRequest(action, chainID string, nonce uint64, timestamp int64) *SignedRequest {
	return &SignedRequest{
		Action:    action,
		ChainID:   chainID,
		Nonce:     nonce,
		Timestamp: timestamp,
	}
}

// IsKnownAction reports whether action names a ceremony message.
func IsKnownAction(action string) bool {
	switch action {
	case TypeMsgJoin, TypeMsgStart, TypeMsgCommit, TypeMsgPublishReveal:
		return true
	default:
		return false
	}
}

// IdentityFromPubKey derives the participant identity for a public key.
func IdentityFromPubKey(pub cryptotypes.PubKey) (string, error) {
	return sdk.Bech32ifyAddressBytes(Bech32Prefix, pub.Address())
}

// SignBytes returns the canonical bytes covered by the signature.
func (r SignedRequest) SignBytes() []byte {
	bz, err := json.Marshal(signDoc{
		Action:     r.Action,
		ChainID:    r.ChainID,
		Sender:     r.Sender,
		PubKey:     r.PubKey,
		Nonce:      r.Nonce,
		Timestamp:  r.Timestamp,
		Commitment: r.Commitment,
		RevealData: r.RevealData,
		RevealKey:  r.RevealKey,
	})
	if err != nil {
		panic(err)
	}
	return sdk.MustSortJSON(bz)
}

// Sign fills in the public key and sender for priv and signs the request.
func (r *SignedRequest) Sign(priv *secp256k1.PrivKey) error {
	return r.SignWith(priv.PubKey(), priv.Sign)
}

// SignWith signs the request with an external signer such as a keyring.
func (r *SignedRequest) SignWith(pub cryptotypes.PubKey, sign func(msg []byte) ([]byte, error)) error {
	sender, err := IdentityFromPubKey(pub)
	if err != nil {
		return err
	}
	r.PubKey = pub.Bytes()
	r.Sender = sender

	sig, err := sign(r.SignBytes())
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// ValidateBasic performs stateless envelope checks.
func (r SignedRequest) ValidateBasic() error {
	if !IsKnownAction(r.Action) {
		return ErrInvalidRequest.Wrapf("unknown action %q", r.Action)
	}
	if r.ChainID == "" {
		return ErrInvalidRequest.Wrap("chain id cannot be empty")
	}
	if err := ValidateIdentity(r.Sender); err != nil {
		return err
	}
	if len(r.Signature) == 0 {
		return ErrInvalidSignature.Wrap("signature cannot be empty")
	}
	return nil
}

// VerifySignature checks that the public key belongs to the sender and that
// the signature covers the request.
func (r SignedRequest) VerifySignature() error {
	if len(r.PubKey) != secp256k1.PubKeySize {
		return ErrInvalidSignature.Wrapf("public key must be %d bytes, got %d", secp256k1.PubKeySize, len(r.PubKey))
	}
	pub := &secp256k1.PubKey{Key: r.PubKey}

	identity, err := IdentityFromPubKey(pub)
	if err != nil {
		return ErrInvalidSignature.Wrap(err.Error())
	}
	if identity != r.Sender {
		return ErrInvalidSignature.Wrapf("public key belongs to %s, not %s", identity, r.Sender)
	}
	if !pub.VerifySignature(r.SignBytes(), r.Signature) {
		return ErrInvalidSignature.Wrap("signature does not verify")
	}
	return nil
}

// Msg returns the ceremony message the request carries.
func (r SignedRequest) Msg() (RequestMsg, error) {
	switch r.Action {
	case TypeMsgJoin:
		return NewMsgJoin(r.Sender), nil
	case TypeMsgStart:
		return NewMsgStart(r.Sender), nil
	case TypeMsgCommit:
		return NewMsgCommit(r.Sender, r.Commitment), nil
	case TypeMsgPublishReveal:
		return NewMsgPublishReveal(r.Sender, r.RevealData, r.RevealKey), nil
	default:
		return nil, ErrInvalidRequest.Wrapf("unknown action %q", r.Action)
	}
}

// String implements fmt.Stringer.
func (r SignedRequest) String() string {
	return fmt.Sprintf("%s by %s (nonce %d)", r.Action, r.Sender, r.Nonce)
}
