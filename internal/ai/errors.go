package ai

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// AuthError means the credential is missing, malformed or rejected by the
// provider. It aborts only the current operation.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// ProviderError wraps a remote embedding/generation failure (network,
// timeout, rate limit). It must propagate: ingestion aborts the batch on it
// so the index is never half-updated.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// wrapRemoteErr classifies an upstream error: credential rejections become
// AuthError, everything else ProviderError.
func wrapRemoteErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return &AuthError{Reason: "API key rejected by provider"}
	}
	return &ProviderError{Op: op, Err: err}
}
