// Package broker defines the collaborator interfaces the brokerage client
// consumes: credential persistence and interactive authentication.
package broker

import "context"

// TokenStorage is a blocking key/value store for persisted credentials.
// Read returns an empty string and a nil error when the key is absent.
type TokenStorage interface {
	Save(key, value string) error
	Read(key string) (string, error)
}

// Credentials are the interactive login inputs supplied by the user.
type Credentials struct {
	Username string
	Password string
	OTP      string
}

// AuthPrompt supplies interactive credentials when no usable token exists.
// It is invoked at most once per failed or absent-credential authentication
// attempt and may block on user input until the context is cancelled.
type AuthPrompt interface {
	Prompt(ctx context.Context) (Credentials, error)
}

// AuthPromptFunc adapts a function to the AuthPrompt interface.
type AuthPromptFunc func(ctx context.Context) (Credentials, error)

// Prompt implements AuthPrompt.
func (f AuthPromptFunc) Prompt(ctx context.Context) (Credentials, error) {
	return f(ctx)
}
