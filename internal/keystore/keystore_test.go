package keystore

import (
	"errors"
	"testing"
)

// Unit tests use MemoryStore — no platform secret store interaction needed.

func testStore() Store {
	return NewMemoryStore()
}

func TestSetAndGet(t *testing.T) {
	s := testStore()

	if err := s.Set("openrouter-api-key", "sk-abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := s.Get("openrouter-api-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "sk-abc123" {
		t.Errorf("expected 'sk-abc123', got %q", val)
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore()

	_, err := s.Get("nonexistent-api-key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := testStore()

	s.Set("gemini-api-key", "first")
	s.Set("gemini-api-key", "second")

	val, err := s.Get("gemini-api-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
}

func TestDelete(t *testing.T) {
	s := testStore()

	s.Set("openrouter-api-key", "to-delete")

	if err := s.Delete("openrouter-api-key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := s.Get("openrouter-api-key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteNonexistent(t *testing.T) {
	s := testStore()

	if err := s.Delete("never-existed-api-key"); err != nil {
		t.Errorf("Delete nonexistent: %v", err)
	}
}
