package vault

import (
	"errors"
	"fmt"

	"github.com/loomchat/loomvault/internal/audit"
)

// Reserved probe identity for the self-test. Disjoint from real providers:
// New rejects any configured provider with this id.
const (
	selfTestProvider = "test-provider"
	selfTestValue    = "test-value"
)

// SelfTest verifies end-to-end that the vault can write a credential through
// the live platform store and read it back. Platform stores can silently
// accept a write yet fail to round-trip it (sandbox entitlement
// restrictions, locked keyrings), and this probe is how support tells an
// environment problem apart from a code defect.
//
// The probe runs one pass with no retries: write, read back, then clean up.
// A cleanup failure is reported in the result but never changes the verdict
// already determined by the read-back. The report contains lengths and
// booleans only, never credential content.
func (v *Vault) SelfTest() (string, error) {
	if err := v.Set(selfTestProvider, selfTestValue); err != nil {
		err = fmt.Errorf("self-test: writing probe credential: %w", err)
		v.recordSelfTest(err)
		return "", err
	}

	val, ok, readErr := v.Get(selfTestProvider)

	// Verdict is fixed here; cleanup below must not alter it.
	var report string
	var verdictErr error
	switch {
	case readErr != nil:
		verdictErr = fmt.Errorf("self-test: reading probe credential back: %w", readErr)
	case !ok:
		verdictErr = errors.New("self-test: probe credential absent after a successful write; the platform store is not round-tripping (check app entitlements and store permissions)")
	case val != selfTestValue:
		verdictErr = fmt.Errorf("self-test: probe credential mismatch: wrote %d bytes, read back %d bytes", len(selfTestValue), len(val))
	default:
		report = fmt.Sprintf("self-test passed: %d-byte probe credential round-tripped through the platform store under service %q", len(selfTestValue), v.service)
	}

	if err := v.Remove(selfTestProvider); err != nil {
		v.logger.Warn("self-test cleanup failed", "error", err)
		if verdictErr == nil {
			report = fmt.Sprintf("%s (cleanup warning: %v)", report, err)
		}
	}

	v.recordSelfTest(verdictErr)
	return report, verdictErr
}

func (v *Vault) recordSelfTest(verdict error) {
	if v.audit == nil {
		return
	}
	entry := audit.Entry{
		Action:   audit.ActionSelfTest,
		Provider: selfTestProvider,
		Actor:    v.actor,
	}
	if verdict != nil {
		entry.Error = verdict.Error()
	}
	v.audit.Log(entry)
}
