package domain

import "time"

// CredentialKind distinguishes how a credential is presented to the search API.
type CredentialKind string

const (
	// CredentialNone means the request is sent unauthenticated.
	CredentialNone CredentialKind = ""
	// CredentialAPIKey is a static key sent as the x-api-key header.
	CredentialAPIKey CredentialKind = "api-key"
	// CredentialBearer is a short-lived token sent as Authorization: Bearer.
	CredentialBearer CredentialKind = "bearer-token"
)

// Credential is an authorization value resolved for a single request.
// The zero value means "no credential".
type Credential struct {
	value     string
	kind      CredentialKind
	expiresAt time.Time
}

// NewAPIKey creates a static API key credential with no expiry.
func NewAPIKey(value string) Credential {
	return Credential{value: value, kind: CredentialAPIKey}
}

// NewBearer creates a bearer token credential.
func NewBearer(value string, expiresAt time.Time) Credential {
	return Credential{value: value, kind: CredentialBearer, expiresAt: expiresAt}
}

// Value returns the raw credential value.
func (c Credential) Value() string { return c.value }

// Kind returns the credential kind.
func (c Credential) Kind() CredentialKind { return c.kind }

// ExpiresAt returns the expiry time; zero for credentials that never expire.
func (c Credential) ExpiresAt() time.Time { return c.expiresAt }

// IsZero reports whether no credential was resolved.
func (c Credential) IsZero() bool { return c.kind == CredentialNone }
