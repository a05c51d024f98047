package chat

import (
	"context"
	"testing"

	"github.com/kamir/trubot/internal/gemini"
)

func newTestRegistry() *Registry {
	backend := &fakeBackend{fn: func(model string, turns []gemini.Turn) (string, error) {
		return "ok", nil
	}}
	return NewRegistry(func() *Session {
		return NewSession(backend, nil, 0, gemini.GenerationConfig{})
	})
}

func TestRegistryModesAreIndependent(t *testing.T) {
	r := newTestRegistry()

	plain := r.GetOrCreate("chan-1", ModePlain)
	rules := r.GetOrCreate("chan-1", ModeRules)
	if plain == rules {
		t.Fatalf("plain and rules sessions must not be shared")
	}
	if r.GetOrCreate("chan-1", ModePlain) != plain {
		t.Fatalf("same key should return same session")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", r.Len())
	}
}

func TestRegistryDelete(t *testing.T) {
	r := newTestRegistry()

	s := r.GetOrCreate("chan-1", ModeRules)
	s.Chat(context.Background(), "hi")

	r.Delete("chan-1", ModeRules)
	if r.Get("chan-1", ModeRules) != nil {
		t.Fatalf("session should be gone after delete")
	}

	// A fresh session replaces the deleted one.
	fresh := r.GetOrCreate("chan-1", ModeRules)
	if fresh.HasHistory() {
		t.Fatalf("recreated session should start empty")
	}

	// Deleting an absent entry is a no-op.
	r.Delete("nope", ModePlain)
}
