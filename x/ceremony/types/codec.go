package types

import (
	"github.com/cosmos/cosmos-sdk/codec"
)

// RegisterLegacyAminoCodec registers the ceremony state and message types on
// the provided LegacyAmino codec.
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgJoin{}, "distmpc/ceremony/MsgJoin", nil)
	cdc.RegisterConcrete(&MsgStart{}, "distmpc/ceremony/MsgStart", nil)
	cdc.RegisterConcrete(&MsgCommit{}, "distmpc/ceremony/MsgCommit", nil)
	cdc.RegisterConcrete(&MsgPublishReveal{}, "distmpc/ceremony/MsgPublishReveal", nil)
	cdc.RegisterConcrete(&Participant{}, "distmpc/ceremony/Participant", nil)
	cdc.RegisterConcrete(&CommitRecord{}, "distmpc/ceremony/CommitRecord", nil)
	cdc.RegisterConcrete(&Params{}, "distmpc/ceremony/Params", nil)
}

var (
	amino = codec.NewLegacyAmino()

	// ModuleCdc encodes ceremony state for the KV store. Request sign bytes are
	// sorted JSON and do not go through it.
	ModuleCdc = amino
)

func init() {
	RegisterLegacyAminoCodec(amino)
	amino.Seal()
}
