package events

import (
	"testing"
	"time"

	natsjwt "github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) (*CredentialsIssuer, string) {
	t.Helper()

	akp, err := nkeys.CreateAccount()
	require.NoError(t, err)
	seed, err := akp.Seed()
	require.NoError(t, err)
	pub, err := akp.PublicKey()
	require.NoError(t, err)

	issuer, err := NewCredentialsIssuer(string(seed), pub)
	require.NoError(t, err)
	return issuer, pub
}

func TestIssueFeedCredentials(t *testing.T) {
	issuer, accountPub := newTestIssuer(t)

	creds, expiresAt, err := issuer.IssueFeedCredentials("console-1", time.Hour)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	token, err := natsjwt.ParseDecoratedJWT([]byte(creds))
	require.NoError(t, err)
	claims, err := natsjwt.DecodeUserClaims(token)
	require.NoError(t, err)

	require.Equal(t, "console-feed-console-1", claims.Name)
	require.Equal(t, accountPub, claims.IssuerAccount)
	require.Equal(t, expiresAt.Unix(), claims.Expires)

	// Subscribe-only: event subjects plus the request/reply inbox.
	require.Contains(t, claims.Permissions.Sub.Allow, subjectPrefix+">")
	require.Contains(t, claims.Permissions.Sub.Allow, "_INBOX.>")
	require.Contains(t, claims.Permissions.Pub.Allow, "$JS.API.STREAM.INFO."+streamName)
	require.NotContains(t, claims.Permissions.Pub.Allow, subjectPrefix+">")

	// The seed in the creds file belongs to the user the JWT names.
	ukp, err := natsjwt.ParseDecoratedUserNKey([]byte(creds))
	require.NoError(t, err)
	userPub, err := ukp.PublicKey()
	require.NoError(t, err)
	require.Equal(t, userPub, claims.Subject)
}

func TestIssueFeedCredentialsAreUnique(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	first, _, err := issuer.IssueFeedCredentials("console-1", time.Hour)
	require.NoError(t, err)
	second, _, err := issuer.IssueFeedCredentials("console-1", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestNewCredentialsIssuerValidation(t *testing.T) {
	_, err := NewCredentialsIssuer("not-a-seed", "ACCOUNTPUB")
	require.Error(t, err)

	akp, err := nkeys.CreateAccount()
	require.NoError(t, err)
	seed, err := akp.Seed()
	require.NoError(t, err)

	_, err = NewCredentialsIssuer(string(seed), "")
	require.Error(t, err)
}
