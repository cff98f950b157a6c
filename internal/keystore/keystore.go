// Package keystore provides secret storage backed by the platform secret
// store (macOS Keychain, Linux Secret Service, Windows Credential Manager).
//
// Secrets are scoped to a service namespace: every account this package
// touches lives under the namespace given at construction. An empty
// namespace is rejected — platform stores treat it as a wildcard match.
package keystore

import "errors"

// ErrNotFound is returned when no secret exists under an account.
var ErrNotFound = errors.New("secret not found")

// Store is the interface for platform secret storage.
//
// Implementations must distinguish exactly two failure classes: "no such
// entry" (ErrNotFound, wrapped) and everything else. Delete is idempotent:
// deleting an absent account succeeds.
type Store interface {
	Set(account, value string) error
	Get(account string) (string, error)
	Delete(account string) error
}
