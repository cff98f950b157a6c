//go:build !darwin

package keystore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SystemStore provides CRUD operations for secrets in the platform keyring
// (Secret Service on Linux, Credential Manager on Windows).
type SystemStore struct {
	service string
}

// NewSystemStore creates a keyring-backed secret store scoped to service.
func NewSystemStore(service string) (*SystemStore, error) {
	if service == "" {
		return nil, errors.New("keystore: empty service namespace")
	}
	return &SystemStore{service: service}, nil
}

// Set stores a secret in the keyring. Overwrites if it already exists.
func (s *SystemStore) Set(account, value string) error {
	if err := keyring.Set(s.service, account, value); err != nil {
		return fmt.Errorf("keyring set %q: %w", account, err)
	}
	return nil
}

// Get retrieves a secret from the keyring.
func (s *SystemStore) Get(account string) (string, error) {
	val, err := keyring.Get(s.service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return "", fmt.Errorf("keyring get %q: %w", account, err)
	}
	return val, nil
}

// Delete removes a secret from the keyring. Deleting an absent account
// is a no-op.
func (s *SystemStore) Delete(account string) error {
	err := keyring.Delete(s.service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %q: %w", account, err)
	}
	return nil
}
