// Package vault maps named per-provider credentials onto a platform secret
// store.
//
// A Vault is scoped by a service namespace and derives one storage account
// per provider ("<provider>-api-key"). It holds no secret material and no
// mutable state of its own: every operation goes straight through to the
// underlying keystore, and the namespace and provider set are fixed at
// construction. Calls are safe for concurrent use.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/loomchat/loomvault/internal/audit"
	"github.com/loomchat/loomvault/internal/keystore"
)

// ErrInvalidProvider is returned when a provider id is empty. It is detected
// before any platform-store access.
var ErrInvalidProvider = errors.New("invalid provider")

// StoreError wraps a platform secret-store failure. "Not found" is never a
// StoreError — absence is a valid result, not a failure.
type StoreError struct {
	Op       string // "get", "set" or "remove"
	Provider string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential %s %q: %v", e.Op, e.Provider, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Credentials is a snapshot of every configured provider's secret. Absent
// providers map to nil. It is built on demand and never persisted.
type Credentials map[string]*string

// Vault is a namespace-scoped credential store for a fixed set of providers.
type Vault struct {
	service   string
	providers []string
	store     keystore.Store
	audit     *audit.Logger // optional
	actor     string
	logger    *slog.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithAudit records every successful credential operation to the given
// audit log. Logging is best-effort and never blocks or fails an operation.
func WithAudit(l *audit.Logger, actor string) Option {
	return func(v *Vault) {
		v.audit = l
		v.actor = actor
	}
}

// WithLogger sets the slog logger used for best-effort diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = l
	}
}

// New creates a vault scoped to service, aggregating over providers.
//
// The service namespace must be non-empty: platform stores treat an empty
// service as a wildcard match. Every provider id must be non-empty and must
// not collide with the reserved self-test id. The provider list only drives
// the aggregate operations (All, HasAny, ClearAll); per-provider operations
// accept any non-empty id.
func New(service string, providers []string, store keystore.Store, opts ...Option) (*Vault, error) {
	if service == "" {
		return nil, errors.New("vault: empty service namespace")
	}
	if store == nil {
		return nil, errors.New("vault: nil store")
	}
	for _, p := range providers {
		if p == "" {
			return nil, fmt.Errorf("vault: %w: empty provider id in provider set", ErrInvalidProvider)
		}
		if p == selfTestProvider {
			return nil, fmt.Errorf("vault: provider id %q is reserved for diagnostics", p)
		}
	}

	v := &Vault{
		service:   service,
		providers: slices.Clone(providers),
		store:     store,
		actor:     "daemon",
		logger:    slog.With("component", "vault"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Service returns the namespace this vault is scoped to.
func (v *Vault) Service() string { return v.service }

// Providers returns the configured provider set, in aggregation order.
func (v *Vault) Providers() []string { return slices.Clone(v.providers) }

// storageKey derives the platform-store account for a provider. Recomputed
// on every access; never stored.
func storageKey(provider string) string {
	return provider + "-api-key"
}

func validateProvider(provider string) error {
	if provider == "" {
		return fmt.Errorf("%w: empty provider id", ErrInvalidProvider)
	}
	return nil
}

// Get returns the secret stored for provider. ok is false when no secret
// exists; that is not an error.
func (v *Vault) Get(provider string) (value string, ok bool, err error) {
	if err := validateProvider(provider); err != nil {
		return "", false, err
	}

	val, err := v.store.Get(storageKey(provider))
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return "", false, nil
		}
		return "", false, &StoreError{Op: "get", Provider: provider, Err: err}
	}

	v.record(audit.ActionCredentialRead, provider)
	return val, true, nil
}

// Set stores a secret for provider, creating or overwriting. The value is
// opaque to the vault; no constraint is enforced on it.
func (v *Vault) Set(provider, value string) error {
	if err := validateProvider(provider); err != nil {
		return err
	}

	if err := v.store.Set(storageKey(provider), value); err != nil {
		return &StoreError{Op: "set", Provider: provider, Err: err}
	}

	v.record(audit.ActionCredentialWrite, provider)
	return nil
}

// Remove deletes the secret for provider. Idempotent: removing an absent
// secret succeeds — "already absent" satisfies the post-condition.
func (v *Vault) Remove(provider string) error {
	if err := validateProvider(provider); err != nil {
		return err
	}

	if err := v.store.Delete(storageKey(provider)); err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil
		}
		return &StoreError{Op: "remove", Provider: provider, Err: err}
	}

	v.record(audit.ActionCredentialDelete, provider)
	return nil
}

// Has reports whether a secret exists for provider. Delegates to Get so
// existence and value queries can never disagree.
func (v *Vault) Has(provider string) (bool, error) {
	_, ok, err := v.Get(provider)
	return ok, err
}

// All queries every configured provider and returns the aggregate snapshot.
// Absent credentials appear as nil entries. If any lookup fails with
// anything other than "not found", the whole call fails — no partial
// snapshot is returned.
func (v *Vault) All() (Credentials, error) {
	creds := make(Credentials, len(v.providers))
	for _, p := range v.providers {
		val, ok, err := v.Get(p)
		if err != nil {
			return nil, err
		}
		if ok {
			creds[p] = &val
		} else {
			creds[p] = nil
		}
	}
	return creds, nil
}

// HasAny reports whether at least one configured provider has a stored
// secret. Providers are checked in configured order and the first store
// error encountered is returned.
func (v *Vault) HasAny() (bool, error) {
	for _, p := range v.providers {
		ok, err := v.Has(p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ClearAll removes every configured provider's secret. Best-effort by
// contract: every provider is attempted regardless of earlier failures, and
// per-provider store errors are logged rather than returned. The goal state
// is "nothing stored", and a failure on one provider must not block
// clearing the rest.
func (v *Vault) ClearAll() error {
	for _, p := range v.providers {
		if err := v.Remove(p); err != nil {
			v.logger.Warn("clearing credential failed", "provider", p, "error", err)
		}
	}
	return nil
}

// record writes an audit entry if auditing is configured. Audit logging is
// best-effort — a failure to log never blocks the operation.
func (v *Vault) record(action audit.Action, provider string) {
	if v.audit == nil {
		return
	}
	v.audit.Log(audit.Entry{
		Action:   action,
		Provider: provider,
		Actor:    v.actor,
	})
}
