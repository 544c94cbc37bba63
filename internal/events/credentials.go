package events

import (
	"fmt"
	"time"

	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"
)

// CredentialsIssuer mints scoped NATS user credentials so admin
// dashboards can subscribe to the console event stream directly,
// without sharing the backend's own NATS identity.
type CredentialsIssuer struct {
	signingKey   nkeys.KeyPair
	accountPubID string
}

func NewCredentialsIssuer(signingKeySeed, accountPubKey string) (*CredentialsIssuer, error) {
	kp, err := nkeys.FromSeed([]byte(signingKeySeed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS signing key seed: %w", err)
	}

	if accountPubKey == "" {
		return nil, fmt.Errorf("missing NATS console account public key")
	}

	return &CredentialsIssuer{
		signingKey:   kp,
		accountPubID: accountPubKey,
	}, nil
}

// IssueFeedCredentials generates a fresh user keypair and a
// subscribe-only JWT scoped to the event subjects, returned together
// in .creds file format.
func (ci *CredentialsIssuer) IssueFeedCredentials(consoleID string, expiresIn time.Duration) (credsContent string, expiresAt time.Time, err error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create user keypair: %w", err)
	}

	seed, err := kp.Seed()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("extract seed: %w", err)
	}

	publicKey, err := kp.PublicKey()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("extract public key: %w", err)
	}

	now := time.Now().UTC()
	expiresAt = now.Add(expiresIn)

	claims := jwt.NewUserClaims(publicKey)
	claims.Name = "console-feed-" + consoleID
	claims.IssuedAt = now.Unix()
	claims.Expires = expiresAt.Unix()
	claims.IssuerAccount = ci.accountPubID

	// Read-only feed: subscribe to console events plus the inbox
	// subjects the client library needs, publish nothing.
	claims.Permissions.Sub.Allow.Add(subjectPrefix + ">")
	claims.Permissions.Sub.Allow.Add("_INBOX.>")
	// JetStream consumer creation for the feed stream goes over the API.
	claims.Permissions.Pub.Allow.Add("$JS.API.STREAM.INFO." + streamName)
	claims.Permissions.Pub.Allow.Add("$JS.API.CONSUMER.>")

	encoded, err := claims.Encode(ci.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode jwt: %w", err)
	}

	return BuildCredsFile(encoded, string(seed)), expiresAt, nil
}

// BuildCredsFile formats a JWT and NKey seed into the standard NATS
// .creds file layout.
func BuildCredsFile(jwtToken, nkeySeed string) string {
	return `-----BEGIN NATS USER JWT-----
` + jwtToken + `
-----END NATS USER JWT-----

-----BEGIN USER NKEY SEED-----
` + nkeySeed + `
-----END USER NKEY SEED-----
`
}
