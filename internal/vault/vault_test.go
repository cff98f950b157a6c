package vault

import (
	"errors"
	"testing"

	"github.com/loomchat/loomvault/internal/keystore"
)

var testProviders = []string{"openrouter", "gemini"}

func newTestVault(t *testing.T, store keystore.Store) *Vault {
	t.Helper()
	v, err := New("com.loomchat.test", testProviders, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

// countingStore records every store access so tests can assert that
// validation failures never touch the platform store.
type countingStore struct {
	inner keystore.Store
	calls int
}

func (s *countingStore) Set(account, value string) error {
	s.calls++
	return s.inner.Set(account, value)
}

func (s *countingStore) Get(account string) (string, error) {
	s.calls++
	return s.inner.Get(account)
}

func (s *countingStore) Delete(account string) error {
	s.calls++
	return s.inner.Delete(account)
}

// faultStore wraps a MemoryStore and injects failures for chosen accounts.
type faultStore struct {
	inner     *keystore.MemoryStore
	getErr    map[string]error
	setErr    map[string]error
	deleteErr map[string]error
}

func newFaultStore() *faultStore {
	return &faultStore{
		inner:     keystore.NewMemoryStore(),
		getErr:    make(map[string]error),
		setErr:    make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (s *faultStore) Set(account, value string) error {
	if err := s.setErr[account]; err != nil {
		return err
	}
	return s.inner.Set(account, value)
}

func (s *faultStore) Get(account string) (string, error) {
	if err := s.getErr[account]; err != nil {
		return "", err
	}
	return s.inner.Get(account)
}

func (s *faultStore) Delete(account string) error {
	if err := s.deleteErr[account]; err != nil {
		return err
	}
	return s.inner.Delete(account)
}

func TestNewRejectsEmptyService(t *testing.T) {
	_, err := New("", testProviders, keystore.NewMemoryStore())
	if err == nil {
		t.Fatal("expected error for empty service namespace")
	}
}

func TestNewRejectsEmptyProviderID(t *testing.T) {
	_, err := New("com.loomchat.test", []string{"openrouter", ""}, keystore.NewMemoryStore())
	if !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestNewRejectsReservedProviderID(t *testing.T) {
	_, err := New("com.loomchat.test", []string{"openrouter", selfTestProvider}, keystore.NewMemoryStore())
	if err == nil {
		t.Fatal("expected error for reserved provider id")
	}
}

func TestGetAbsent(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	val, ok, err := v.Get("openrouter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Errorf("expected absent credential, got %q", val)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	if err := v.Set("openrouter", "sk-abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok, err := v.Get("openrouter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || val != "sk-abc123" {
		t.Errorf("expected 'sk-abc123', got %q (ok=%v)", val, ok)
	}

	has, err := v.Has("openrouter")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("expected Has true after Set")
	}
}

func TestSetOverwrites(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	v.Set("gemini", "first")
	v.Set("gemini", "second")

	val, ok, err := v.Get("gemini")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || val != "second" {
		t.Errorf("expected 'second', got %q (ok=%v)", val, ok)
	}
}

func TestStorageKeyDerivation(t *testing.T) {
	store := keystore.NewMemoryStore()
	v := newTestVault(t, store)

	v.Set("openrouter", "sk-abc123")

	val, err := store.Get("openrouter-api-key")
	if err != nil {
		t.Fatalf("expected secret under 'openrouter-api-key': %v", err)
	}
	if val != "sk-abc123" {
		t.Errorf("expected 'sk-abc123', got %q", val)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	// Removing a credential that never existed succeeds.
	if err := v.Remove("openrouter"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}

	v.Set("openrouter", "sk-abc123")
	if err := v.Remove("openrouter"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := v.Remove("openrouter"); err != nil {
		t.Fatalf("second Remove: %v", err)
	}

	has, _ := v.Has("openrouter")
	if has {
		t.Error("expected credential gone after Remove")
	}
}

func TestEmptyProviderNoStoreAccess(t *testing.T) {
	store := &countingStore{inner: keystore.NewMemoryStore()}
	v := newTestVault(t, store)

	if _, _, err := v.Get(""); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Get: expected ErrInvalidProvider, got %v", err)
	}
	if err := v.Set("", "value"); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Set: expected ErrInvalidProvider, got %v", err)
	}
	if err := v.Remove(""); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Remove: expected ErrInvalidProvider, got %v", err)
	}
	if _, err := v.Has(""); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Has: expected ErrInvalidProvider, got %v", err)
	}

	if store.calls != 0 {
		t.Errorf("expected no store access, got %d calls", store.calls)
	}
}

func TestGetWrapsStoreError(t *testing.T) {
	store := newFaultStore()
	cause := errors.New("keychain locked")
	store.getErr["openrouter-api-key"] = cause

	v := newTestVault(t, store)

	_, _, err := v.Get("openrouter")
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Op != "get" || se.Provider != "openrouter" {
		t.Errorf("unexpected StoreError fields: %+v", se)
	}
	if !errors.Is(err, cause) {
		t.Error("expected StoreError to wrap the underlying cause")
	}
}

func TestAllSnapshot(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	v.Set("openrouter", "sk-abc123")
	v.Set("gemini", "gm-xyz789")

	creds, err := v.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(creds))
	}
	if creds["openrouter"] == nil || *creds["openrouter"] != "sk-abc123" {
		t.Errorf("unexpected openrouter entry: %v", creds["openrouter"])
	}
	if creds["gemini"] == nil || *creds["gemini"] != "gm-xyz789" {
		t.Errorf("unexpected gemini entry: %v", creds["gemini"])
	}
}

func TestAllFreshVault(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	creds, err := v.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, p := range testProviders {
		entry, present := creds[p]
		if !present {
			t.Errorf("expected %q key in snapshot", p)
		}
		if entry != nil {
			t.Errorf("expected nil entry for %q, got %q", p, *entry)
		}
	}
}

func TestAllFailsWholeCallOnStoreError(t *testing.T) {
	store := newFaultStore()
	store.inner.Set("openrouter-api-key", "sk-abc123")
	store.getErr["gemini-api-key"] = errors.New("permission denied")

	v := newTestVault(t, store)

	creds, err := v.All()
	if err == nil {
		t.Fatal("expected error from All")
	}
	if creds != nil {
		t.Error("expected no partial snapshot on failure")
	}
}

func TestHasAny(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	any, err := v.HasAny()
	if err != nil {
		t.Fatalf("HasAny: %v", err)
	}
	if any {
		t.Error("expected HasAny false on fresh vault")
	}

	v.Set("gemini", "gm-xyz789")

	any, err = v.HasAny()
	if err != nil {
		t.Fatalf("HasAny: %v", err)
	}
	if !any {
		t.Error("expected HasAny true after Set")
	}
}

func TestHasAnyPropagatesFirstError(t *testing.T) {
	store := newFaultStore()
	store.getErr["openrouter-api-key"] = errors.New("keyring unavailable")
	store.inner.Set("gemini-api-key", "gm-xyz789")

	v := newTestVault(t, store)

	// openrouter is checked first in configured order; its failure wins
	// even though gemini would have answered true.
	_, err := v.HasAny()
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Provider != "openrouter" {
		t.Errorf("expected first-provider error, got %q", se.Provider)
	}
}

func TestClearAll(t *testing.T) {
	v := newTestVault(t, keystore.NewMemoryStore())

	v.Set("openrouter", "sk-abc123")
	v.Set("gemini", "gm-xyz789")

	if err := v.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	any, err := v.HasAny()
	if err != nil {
		t.Fatalf("HasAny: %v", err)
	}
	if any {
		t.Error("expected nothing stored after ClearAll")
	}
}

func TestClearAllBestEffort(t *testing.T) {
	store := newFaultStore()
	store.inner.Set("gemini-api-key", "gm-xyz789")
	store.deleteErr["openrouter-api-key"] = errors.New("permission denied")

	v := newTestVault(t, store)

	// The first provider's removal fails (its entry was already absent);
	// the second must still be cleared and the call must not report an
	// error.
	if err := v.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	if _, err := store.inner.Get("gemini-api-key"); !errors.Is(err, keystore.ErrNotFound) {
		t.Error("expected gemini credential cleared despite openrouter failure")
	}

	any, err := v.HasAny()
	if err != nil {
		t.Fatalf("HasAny: %v", err)
	}
	if any {
		t.Error("expected HasAny false after best-effort clear")
	}
}

func TestProvidersCopied(t *testing.T) {
	providers := []string{"openrouter", "gemini"}
	v, err := New("com.loomchat.test", providers, keystore.NewMemoryStore())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	providers[0] = "mutated"
	got := v.Providers()
	if got[0] != "openrouter" {
		t.Errorf("provider set not isolated from caller slice: %v", got)
	}
}
