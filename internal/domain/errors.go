package domain

import "fmt"

// AuthErrorKind classifies identity provider failures.
type AuthErrorKind string

const (
	AuthEmailInUse         AuthErrorKind = "email_in_use"
	AuthWeakPassword       AuthErrorKind = "weak_password"
	AuthInvalidEmail       AuthErrorKind = "invalid_email"
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthUserNotFound       AuthErrorKind = "user_not_found"
	AuthPopupClosed        AuthErrorKind = "popup_closed"
	AuthUnknown            AuthErrorKind = "unknown"
)

// AuthError is a typed failure surfaced by identity operations.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps err with an auth failure kind.
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// StoreErrorKind classifies document store failures.
type StoreErrorKind string

const (
	StoreNetworkUnavailable StoreErrorKind = "network_unavailable"
	StorePermissionDenied   StoreErrorKind = "permission_denied"
	StoreNotFound           StoreErrorKind = "not_found"
	StoreUnknown            StoreErrorKind = "unknown"
)

// StoreError is a typed failure surfaced by item store operations.
type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("store: %s", e.Kind)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with a store failure kind.
func NewStoreError(kind StoreErrorKind, err error) *StoreError {
	return &StoreError{Kind: kind, Err: err}
}
