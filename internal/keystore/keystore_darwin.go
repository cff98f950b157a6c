//go:build darwin

package keystore

import (
	"errors"
	"fmt"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemStore provides CRUD operations for secrets in macOS Keychain.
//
// Entries are generic passwords with Service set to the namespace and
// Account set to the storage key. They are never synced to iCloud and are
// only readable while the device is unlocked.
type SystemStore struct {
	service string
}

// NewSystemStore creates a Keychain-backed secret store scoped to service.
func NewSystemStore(service string) (*SystemStore, error) {
	if service == "" {
		return nil, errors.New("keystore: empty service namespace")
	}
	return &SystemStore{service: service}, nil
}

// Set stores a secret in the Keychain. Overwrites if it already exists.
func (s *SystemStore) Set(account, value string) error {
	// Update = delete + add; the Keychain has no upsert for generic passwords.
	_ = s.Delete(account)

	item := gokeychain.NewGenericPassword(
		s.service,
		account,
		fmt.Sprintf("%s: %s", s.service, account),
		[]byte(value),
		"",
	)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := gokeychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add %q: %w", account, err)
	}
	return nil
}

// Get retrieves a secret from the Keychain. Zero-length item data is
// reported as not found, matching how the Keychain round-trips empty values.
func (s *SystemStore) Get(account string) (string, error) {
	data, err := gokeychain.GetGenericPassword(s.service, account, "", "")
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return "", fmt.Errorf("keychain get %q: %w", account, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	return string(data), nil
}

// Delete removes a secret from the Keychain. Deleting an absent account
// is a no-op.
func (s *SystemStore) Delete(account string) error {
	err := gokeychain.DeleteGenericPasswordItem(s.service, account)
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete %q: %w", account, err)
	}
	return nil
}
