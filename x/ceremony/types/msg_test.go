package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateIdentity(t *testing.T) {
	require.NoError(t, ValidateIdentity("alice"))
	require.NoError(t, ValidateIdentity("distmpc1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"))
	require.ErrorIs(t, ValidateIdentity(""), ErrInvalidIdentity)
	require.ErrorIs(t, ValidateIdentity("   "), ErrInvalidIdentity)
	require.ErrorIs(t, ValidateIdentity(" alice"), ErrInvalidIdentity)
	require.ErrorIs(t, ValidateIdentity("alice\n"), ErrInvalidIdentity)
}

func TestMsgValidateBasicChecksSenderOnly(t *testing.T) {
	// Payload checks need state (phase and membership come first), so
	// stateless validation only looks at the sender.
	require.NoError(t, NewMsgCommit("alice", nil).ValidateBasic())
	require.NoError(t, NewMsgPublishReveal("alice", nil, nil).ValidateBasic())

	msgs := []interface{ ValidateBasic() error }{
		NewMsgJoin(""),
		NewMsgStart(""),
		NewMsgCommit("", []byte("c")),
		NewMsgPublishReveal("", []byte("d"), []byte("k")),
	}
	for _, msg := range msgs {
		require.ErrorIs(t, msg.ValidateBasic(), ErrInvalidIdentity)
	}
}

func TestMsgRouteAndType(t *testing.T) {
	require.Equal(t, RouterKey, NewMsgJoin("a").Route())
	require.Equal(t, TypeMsgJoin, NewMsgJoin("a").Type())
	require.Equal(t, TypeMsgStart, NewMsgStart("a").Type())
	require.Equal(t, TypeMsgCommit, NewMsgCommit("a", nil).Type())
	require.Equal(t, TypeMsgPublishReveal, NewMsgPublishReveal("a", nil, nil).Type())
}

func TestRoleJSON(t *testing.T) {
	bz, err := RoleCoordinator.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"Coordinator"`, string(bz))

	var r Role
	require.NoError(t, r.UnmarshalJSON([]byte(`"Regular"`)))
	require.Equal(t, RoleRegular, r)
	require.Error(t, r.UnmarshalJSON([]byte(`"Admin"`)))
}

func TestKeysOrderByIndex(t *testing.T) {
	require.Less(t, string(ParticipantKey(1)), string(ParticipantKey(2)))
	require.Less(t, string(ParticipantKey(255)), string(ParticipantKey(256)))
	require.Equal(t, uint64(256), DecodeIndex(EncodeIndex(256)))
	require.Zero(t, DecodeIndex(nil))
}
