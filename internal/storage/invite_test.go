package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateInviteToken(t *testing.T) {
	token, prefix, hash, err := GenerateInviteToken()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(token, InvitePrefix))
	require.Len(t, token, len(InvitePrefix)+inviteTokenLength*2)
	require.Equal(t, token[:invitePrefixLength], prefix)

	// The hash verifies the token it was minted for and nothing else.
	require.True(t, ValidateInviteHash(token, hash))
	require.False(t, ValidateInviteHash(token+"x", hash))

	other, _, _, err := GenerateInviteToken()
	require.NoError(t, err)
	require.NotEqual(t, token, other)
	require.False(t, ValidateInviteHash(other, hash))
}
