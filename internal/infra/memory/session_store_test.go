package memory_test

import (
	"testing"

	"nextgen-quiz-service/internal/infra/memory"
)

func TestSessionStore(t *testing.T) {
	store := memory.NewSessionStore()

	if _, ok := store.Get("s1"); ok {
		t.Fatalf("unknown session must not exist")
	}

	created := store.GetOrCreate("s1")
	if created.ID() != "s1" {
		t.Fatalf("id = %q, want s1", created.ID())
	}
	if again := store.GetOrCreate("s1"); again != created {
		t.Fatalf("GetOrCreate must return the same session")
	}

	got, ok := store.Get("s1")
	if !ok || got != created {
		t.Fatalf("Get must find the created session")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("deleted session must be gone")
	}
}
