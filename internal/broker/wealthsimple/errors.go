// Package wealthsimple provides a read-only client for the Wealthsimple
// private web API: token lifecycle management, account and position
// fetching, and the dual-protocol (REST + GraphQL activity feed)
// transaction retrieval pipeline.
package wealthsimple

import "errors"

var (
	// ErrAuthenticationFailed indicates the interactive login was rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCredentialRejected indicates the server refused the stored or
	// refreshed credential.
	ErrCredentialRejected = errors.New("credential rejected by server")

	// ErrNoCredential indicates no usable credential is available.
	ErrNoCredential = errors.New("no credential available")
)
